package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Simplici0/quote-estimator/internal/submission"
)

func (s *server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(email, password)
	if err != nil {
		log.Printf("admin login: %v", err)
		writeError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.setSessionCookie(w, email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAdminSubmissions(w http.ResponseWriter, r *http.Request) {
	status := submission.Status(r.URL.Query().Get("status"))
	switch status {
	case "", submission.StatusPending, submission.StatusSent, submission.StatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "status must be pending, sent or failed")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.submissions.List(r.Context(), status, limit)
	if err != nil {
		log.Printf("list submissions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "submissions": records})
}

func (s *server) handleAdminRetry(w http.ResponseWriter, r *http.Request) {
	stats, err := s.outbox.RetryFailed(r.Context())
	if err != nil {
		log.Printf("retry submissions: %v", err)
		writeError(w, http.StatusInternalServerError, "retry failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "retry": stats})
}
