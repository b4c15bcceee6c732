package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Simplici0/quote-estimator/internal/catalog"
	"github.com/Simplici0/quote-estimator/internal/crm"
	"github.com/Simplici0/quote-estimator/internal/estimator"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

// session wraps one visitor's estimator. The store itself is single-threaded,
// so every handler holds mu while it touches it.
type session struct {
	id    string
	mu    sync.Mutex
	store *estimator.Store
}

type sessionStore struct {
	cat   *catalog.Catalog
	cache *expirable.LRU[string, *session]
}

func newSessionStore(cat *catalog.Catalog, size int, ttl time.Duration) *sessionStore {
	return &sessionStore{
		cat:   cat,
		cache: expirable.NewLRU[string, *session](size, nil, ttl),
	}
}

func (s *sessionStore) create() *session {
	sess := &session{id: uuid.NewString(), store: estimator.New(s.cat)}
	s.cache.Add(sess.id, sess)
	return sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	return s.cache.Get(id)
}

type sessionView struct {
	ID            string                  `json:"id"`
	State         estimator.Snapshot      `json:"state"`
	Quote         pricing.Quote           `json:"quote"`
	ActiveBundles []pricing.AppliedBundle `json:"activeBundles"`
	Progress      float64                 `json:"progress"`
	CanAdvance    bool                    `json:"canAdvance"`
	Timeline      timelineView            `json:"timeline"`
}

func (s *server) viewOf(sess *session) sessionView {
	snap := sess.store.Snapshot()
	return sessionView{
		ID:            sess.id,
		State:         snap,
		Quote:         sess.store.Quote(),
		ActiveBundles: sess.store.ActiveBundles(),
		Progress:      sess.store.Progress(),
		CanAdvance:    sess.store.ValidateStep(sess.store.CurrentStep()),
		Timeline:      s.timeline(snap),
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session)

func (s *server) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

// withSession resolves {id} and serializes access to the session.
func (s *server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		h(w, r, sess)
	}
}

func (s *server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.create()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.viewOf(sess))
}

func (s *server) handleSessionGet(w http.ResponseWriter, r *http.Request, sess *session) {
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionToggle(w http.ResponseWriter, r *http.Request, sess *session) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := s.cat.Service(serviceID); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown service %q", serviceID))
		return
	}
	sess.store.ToggleService(serviceID)
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionServiceConfig(w http.ResponseWriter, r *http.Request, sess *session) {
	serviceID := chi.URLParam(r, "serviceID")
	if _, ok := s.cat.Service(serviceID); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown service %q", serviceID))
		return
	}
	var patch estimator.ServiceConfigPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.store.UpdateServiceConfig(serviceID, patch)
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionCommon(w http.ResponseWriter, r *http.Request, sess *session) {
	var patch estimator.CommonPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.store.UpdateCommonConfig(patch)
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionPreferences(w http.ResponseWriter, r *http.Request, sess *session) {
	var patch estimator.PreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.store.UpdatePreferences(patch)
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionStep(w http.ResponseWriter, r *http.Request, sess *session) {
	var body struct {
		Step string `json:"step"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sess.store.SetStep(body.Step) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown step %q", body.Step))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionNext(w http.ResponseWriter, r *http.Request, sess *session) {
	step := sess.store.CurrentStep()
	if !sess.store.Next() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("step %q is incomplete or last", step))
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionBack(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.store.Back()
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *server) handleSessionReset(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.store.Reset()
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

type submitResponse struct {
	OK            bool                   `json:"ok"`
	Error         string                 `json:"error,omitempty"`
	SubmissionID  string                 `json:"submissionId,omitempty"`
	ContactID     string                 `json:"contactId,omitempty"`
	Opportunity   *crm.OpportunityResult `json:"opportunity,omitempty"`
	SavedForRetry bool                   `json:"savedForRetry,omitempty"`
	Session       *sessionView           `json:"session,omitempty"`
}

// handleSessionSubmit sends a copy of the session's quote to the CRM and
// resets the session on success. On failure the state is kept so the visitor
// can retry. The session stays unlocked while the CRM call is in flight.
func (s *server) handleSessionSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var contact crm.Contact
	if err := decodeJSON(r, &contact); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	sub := crm.Submission{
		Contact:  contact,
		Snapshot: sess.store.Snapshot(),
		Quote:    sess.store.Quote(),
	}
	sess.mu.Unlock()

	status, resp := s.submit(r, sub)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if resp.OK {
		sess.store.Reset()
	}
	view := s.viewOf(sess)
	resp.Session = &view
	writeJSON(w, status, resp)
}

// submit validates, records and sends one submission.
func (s *server) submit(r *http.Request, sub crm.Submission) (int, submitResponse) {
	payload, err := s.gateway.Prepare(r.Context(), sub)
	if err != nil {
		return http.StatusBadRequest, submitResponse{Error: err.Error()}
	}

	rec, res, err := s.outbox.Send(r.Context(), payload)
	if err != nil {
		log.Printf("record submission: %v", err)
		if r.Context().Err() != nil {
			return http.StatusServiceUnavailable, submitResponse{Error: "request cancelled"}
		}
		return http.StatusInternalServerError, submitResponse{Error: "failed to record submission"}
	}

	if !res.Success {
		log.Printf("submission %s failed: %s", rec.ID, res.Error)
		return http.StatusBadGateway, submitResponse{
			Error:         res.Error,
			SubmissionID:  rec.ID,
			SavedForRetry: true,
		}
	}
	return http.StatusOK, submitResponse{
		OK:           true,
		SubmissionID: rec.ID,
		ContactID:    res.ContactID,
		Opportunity:  res.Opportunity,
	}
}
