package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hfrat.org/internal/auth"
)

const historyDefaultDays = 7

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.ActionRead, ""); !ok {
		return
	}

	summaries, err := a.registry.DashboardSummary(r.Context())
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	critical := 0
	for _, s := range summaries {
		if s.Critical {
			critical++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"facilities":     summaries,
		"total":          len(summaries),
		"critical_count": critical,
	})
}

func (a *API) handleDashboardHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	facilityID := strings.TrimSpace(r.URL.Query().Get("facility_id"))
	if facilityID == "" {
		writeError(w, r, http.StatusBadRequest, "facility_id is required")
		return
	}

	if _, ok := a.authorize(w, r, auth.ActionRead, facilityID); !ok {
		return
	}

	days := historyDefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			writeError(w, r, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	reports, err := a.registry.ReportHistory(r.Context(), facilityID, since)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"facility_id": facilityID,
		"days":        days,
		"reports":     reports,
	})
}

// handleStream pushes report submissions to the client as server-sent events
// until the client disconnects.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.authorize(w, r, auth.ActionRead, ""); !ok {
		return
	}
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, "event stream disabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := a.stream.Subscribe(r.Context())
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case evt, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: report\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
