package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medication-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, c *Composer) {
	r.Get("/dashboard", dashboardHandler(c))
}

type todayAdherenceResponse struct {
	Taken int     `json:"taken"`
	Total int     `json:"total"`
	Rate  float64 `json:"rate"`
}

type upcomingDoseResponse struct {
	MedicationID  string    `json:"medication_id"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

type dashboardResponse struct {
	ActiveMedicationCount int                    `json:"active_medication_count"`
	TodayAdherence        todayAdherenceResponse `json:"today_adherence"`
	UpcomingDoses         []upcomingDoseResponse `json:"upcoming_doses"`
}

// dashboardHandler godoc
// @Summary Dashboard
// @Description Medicaciones vigentes, adherencia de hoy y próximas tomas pendientes en las siguientes 24h.
// @Tags dashboard
// @Produce json
// @Param limit query int false "Máximo de próximas tomas (0 = todas)"
// @Success 200 {object} dashboardResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /dashboard [get]
func dashboardHandler(c *Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		s, err := c.Summary(r.Context(), userID, c.ledger.Now(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := dashboardResponse{
			ActiveMedicationCount: s.ActiveMedicationCount,
			TodayAdherence: todayAdherenceResponse{
				Taken: s.TodayAdherence.Taken,
				Total: s.TodayAdherence.Total,
				Rate:  s.TodayAdherence.Rate,
			},
			UpcomingDoses: make([]upcomingDoseResponse, 0, len(s.UpcomingDoses)),
		}
		for _, d := range s.UpcomingDoses {
			out.UpcomingDoses = append(out.UpcomingDoses, upcomingDoseResponse{
				MedicationID:  d.MedicationID,
				Medication:    d.Medication,
				Dosage:        d.Dosage,
				ScheduledTime: d.ScheduledAt.In(c.loc),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
