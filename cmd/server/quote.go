package main

import (
	"net/http"
	"time"

	"github.com/Simplici0/quote-estimator/internal/crm"
	"github.com/Simplici0/quote-estimator/internal/estimator"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

type timelineView struct {
	Days         int    `json:"days"`
	DeliveryDate string `json:"deliveryDate"`
}

type quoteResponse struct {
	Quote    pricing.Quote `json:"quote"`
	Timeline timelineView  `json:"timeline"`
}

func (s *server) timeline(snap estimator.Snapshot) timelineView {
	if len(snap.SelectedServices) == 0 {
		return timelineView{}
	}
	days := pricing.EstimateTimeline(len(snap.SelectedServices), crm.HighestServiceLevel(s.cat, snap))
	return timelineView{
		Days:         days,
		DeliveryDate: pricing.EstimateDelivery(s.now(), days).Format(time.DateOnly),
	}
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cat)
}

// handleQuote prices a selection sent by the client. The server never reuses
// client-computed totals, and duplicate service ids count once.
func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var sel pricing.Selection
	if err := decodeJSON(r, &sel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sel = sel.Normalize()

	snap := estimator.Snapshot{SelectedServices: sel.Services, ServiceConfigs: sel.Configs, CommonConfig: sel.Common}
	writeJSON(w, http.StatusOK, quoteResponse{
		Quote:    pricing.PriceAll(s.cat, sel),
		Timeline: s.timeline(snap),
	})
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	var sel pricing.Selection
	if err := decodeJSON(r, &sel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pricing.PriceAll(s.cat, sel.Normalize()).Text()))
}
