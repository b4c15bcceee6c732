package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// PipelineID and Stages route opportunities by pipeline key.
	PipelineID string
	Stages     map[string]string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureStages(tx, cfg.PipelineID, cfg.Stages, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// ensureStages mirrors the configured stage ids into pipeline_stages. Keys
// with an empty stage id are left alone.
func ensureStages(tx *sql.Tx, pipelineID string, stages map[string]string, stats *Stats) error {
	if pipelineID == "" {
		return nil
	}

	keys := make([]string, 0, len(stages))
	for k := range stages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		stageID := stages[key]
		if stageID == "" {
			continue
		}

		var curPipeline, curStage string
		err := tx.QueryRow(`SELECT pipeline_id, stage_id FROM pipeline_stages WHERE pipeline_key = ?`, key).Scan(&curPipeline, &curStage)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.Exec(`
				INSERT INTO pipeline_stages (pipeline_key, pipeline_id, stage_id)
				VALUES (?, ?, ?)
			`, key, pipelineID, stageID); err != nil {
				return fmt.Errorf("insert stage %s: %w", key, err)
			}
			stats.Inserts++
		case err != nil:
			return fmt.Errorf("check stage %s: %w", key, err)
		case curPipeline != pipelineID || curStage != stageID:
			if _, err := tx.Exec(`
				UPDATE pipeline_stages
				SET pipeline_id = ?, stage_id = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
				WHERE pipeline_key = ?
			`, pipelineID, stageID, key); err != nil {
				return fmt.Errorf("update stage %s: %w", key, err)
			}
			stats.Updates++
		}
	}
	return nil
}
