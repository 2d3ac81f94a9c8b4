package handlers

import (
	"net/http"
	"time"
)

// parseDateQuery falls back to fallback when the parameter is missing or
// malformed, mirroring the lenient date handling of the summary views.
func parseDateQuery(r *http.Request, name string, fallback time.Time) time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}

func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	date := parseDateQuery(r, "date", time.Now().UTC())

	ctx, cancel := requestCtx(r)
	defer cancel()

	summary, err := h.Service.DailySummary(ctx, actor, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}

func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// default to the current week starting Sunday
	now := time.Now().UTC()
	defaultStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekStart := parseDateQuery(r, "weekStart", defaultStart)

	ctx, cancel := requestCtx(r)
	defer cancel()

	summary, err := h.Service.WeeklySummaryFor(ctx, actor, weekStart)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}
