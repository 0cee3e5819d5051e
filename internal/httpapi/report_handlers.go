package httpapi

import (
	"net/http"
	"strings"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/stream"
)

type submitReportRequest struct {
	FacilityID           string `json:"facility_id"`
	ICUBedsAvailable     int    `json:"icu_beds_available"`
	VentilatorsAvailable int    `json:"ventilators_available"`
	StaffOnDuty          int    `json:"staff_on_duty"`
}

func (a *API) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req submitReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	facilityID := strings.TrimSpace(req.FacilityID)
	if facilityID == "" {
		facilityID = principal.FacilityID
	}
	if facilityID == "" {
		writeError(w, r, http.StatusBadRequest, "facility_id is required")
		return
	}

	if _, ok := a.authorize(w, r, auth.ActionWrite, facilityID); !ok {
		return
	}

	report, err := a.registry.SubmitReport(r.Context(), facilityID,
		req.ICUBedsAvailable, req.VentilatorsAvailable, req.StaffOnDuty)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	a.audit(r.Context(), "report.submitted", map[string]any{
		"facility_id": facilityID,
		"report_id":   report.ID,
	})

	if a.stream != nil {
		facility, err := a.registry.GetFacility(r.Context(), facilityID)
		if err == nil {
			a.stream.Publish(stream.ReportEvent{
				FacilityID:           facility.ID,
				FacilityName:         facility.Name,
				ICUBedsAvailable:     report.ICUBedsAvailable,
				VentilatorsAvailable: report.VentilatorsAvailable,
				StaffOnDuty:          report.StaffOnDuty,
				Critical:             report.ICUBedsAvailable == 0,
				Timestamp:            report.UpdatedAt,
			})
		}
	}

	writeJSON(w, http.StatusCreated, report)
}

func (a *API) handleMyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	facilityID := principal.FacilityID
	if facilityID == "" {
		// Admins and monitors name the facility explicitly.
		facilityID = strings.TrimSpace(r.URL.Query().Get("facility_id"))
	}
	if facilityID == "" {
		writeError(w, r, http.StatusBadRequest, "facility_id is required")
		return
	}

	if _, ok := a.authorize(w, r, auth.ActionRead, facilityID); !ok {
		return
	}

	report, err := a.registry.LatestReport(r.Context(), facilityID)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
