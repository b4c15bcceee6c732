package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Simplici0/quote-estimator/internal/crm"
	"github.com/Simplici0/quote-estimator/internal/estimator"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

type submitQuoteRequest struct {
	crm.Contact
	Selection   pricing.Selection     `json:"selection"`
	Preferences estimator.Preferences `json:"preferences"`
}

// handleSubmitQuote is the stateless submission path for widgets that keep
// their own state. The selection is repriced here.
func (s *server) handleSubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req submitQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel := req.Selection.Normalize()
	snap := estimator.Snapshot{
		CurrentStep:      "contact",
		SelectedServices: sel.Services,
		ServiceConfigs:   sel.Configs,
		CommonConfig:     sel.Common,
		Preferences:      req.Preferences,
	}

	status, resp := s.submit(r, crm.Submission{
		Contact:  req.Contact,
		Snapshot: snap,
		Quote:    pricing.PriceAll(s.cat, sel),
	})
	writeJSON(w, status, resp)
}

// writeCRMError reports a CRM failure, passing API statuses through.
func writeCRMError(w http.ResponseWriter, err error) {
	var apiErr *crm.APIError
	switch {
	case errors.As(err, &apiErr):
		body := any(apiErr.Body)
		var parsed any
		if json.Unmarshal([]byte(apiErr.Body), &parsed) == nil {
			body = parsed
		}
		writeJSON(w, apiErr.Status, map[string]any{"ok": false, "status": apiErr.Status, "body": body})
	case errors.Is(err, crm.ErrMissingToken), errors.Is(err, crm.ErrMissingLocation):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		log.Printf("crm request: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

type fieldSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

func (s *server) handleGHLHealth(w http.ResponseWriter, r *http.Request) {
	fields, err := s.ghl.CustomFields(r.Context())
	if err != nil {
		writeCRMError(w, err)
		return
	}

	var sample *fieldSummary
	if len(fields) > 0 {
		sample = &fieldSummary{ID: fields[0].ID, Name: fields[0].Name, Key: fields[0].Key}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                true,
		"locationId":        s.ghl.LocationID(),
		"customFieldsCount": len(fields),
		"sampleField":       sample,
	})
}

func (s *server) handleGHLPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := s.ghl.Pipelines(r.Context())
	if err != nil {
		writeCRMError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "pipelines": pipelines})
}

func (s *server) handleGHLEstimatorFields(w http.ResponseWriter, r *http.Request) {
	s.writeFieldMatches(w, r, crm.EstimatorFields)
}

func (s *server) handleGHLRangeFields(w http.ResponseWriter, r *http.Request) {
	s.writeFieldMatches(w, r, crm.RangeFields)
}

// writeFieldMatches lists the wanted custom fields that exist in the
// location. It always reads fresh, and drops the gateway's cached ids so new
// fields are picked up by the next submission.
func (s *server) writeFieldMatches(w http.ResponseWriter, r *http.Request, keys []string) {
	fields, err := s.ghl.CustomFields(r.Context())
	if err != nil {
		writeCRMError(w, err)
		return
	}
	s.gateway.ForgetFields()

	matches, missing := crm.MatchFields(fields, keys)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"found":   len(matches),
		"matches": matches,
		"missing": missing,
	})
}
