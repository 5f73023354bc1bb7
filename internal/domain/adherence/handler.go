package adherence

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/middleware"
	"medication-adherence/internal/platform/civil"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, ledger *Ledger, agg *Aggregator) {
	r.Route("/adherence", func(ar chi.Router) {
		ar.Post("/log", logAdherenceHandler(ledger))
		ar.Get("/stats", statsHandler(agg))
		ar.Get("/history", historyHandler(ledger))
	})
}

type logAdherenceRequest struct {
	MedicationID  string `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"` // RFC3339, o sin zona en la zona configurada
	Status        string `json:"status" enums:"taken,skipped,missed"`
	Note          string `json:"note"`
}

type eventResponse struct {
	ID            string    `json:"id"`
	MedicationID  string    `json:"medication_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        Status    `json:"status"`
	Source        Source    `json:"source"`
	LoggedAt      time.Time `json:"logged_at"`
	Note          string    `json:"note,omitempty"`
}

type dayStatsResponse struct {
	Date string `json:"date"`
	DayStats
}

type statsResponse struct {
	From          string              `json:"from"`
	To            string              `json:"to"`
	Taken         int                 `json:"taken"`
	Missed        int                 `json:"missed"`
	Skipped       int                 `json:"skipped"`
	Pending       int                 `json:"pending"`
	TotalDoses    int                 `json:"total_doses"`
	AdherenceRate float64             `json:"adherence_rate"`
	Daily         map[string]DayStats `json:"daily"`
	Days          []dayStatsResponse  `json:"days"` // mismo desglose, ordenado por fecha
}

// logAdherenceHandler godoc
// @Summary Registrar toma
// @Description Registra taken/skipped/missed para una toma programada. Repetir el registro reemplaza el estado vigente; el historial se conserva.
// @Tags adherence
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body logAdherenceRequest true "Toma a registrar"
// @Success 201 {object} eventResponse
// @Failure 400 {object} errorResponse "status inválido o JSON mal formado"
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse "medicación inexistente"
// @Failure 422 {object} errorResponse "la medicación no tiene una toma en ese horario"
// @Security BearerAuth
// @Router /adherence/log [post]
func logAdherenceHandler(ledger *Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req logAdherenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.MedicationID) == "" {
			writeError(w, http.StatusBadRequest, "medication_id is required")
			return
		}

		at, err := ledger.ParseScheduledTime(req.ScheduledTime)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		e, err := ledger.Log(r.Context(), userID, LogInput{
			MedicationID: req.MedicationID,
			ScheduledAt:  at,
			Status:       req.Status,
			Note:         req.Note,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(e, ledger.Location()))
	}
}

// statsHandler godoc
// @Summary Estadísticas de adherencia
// @Description Totales y desglose diario. Por defecto los últimos 30 días; days acepta cualquier valor entre 1 y 366. Alternativamente from/to (YYYY-MM-DD, inclusive).
// @Tags adherence
// @Produce json
// @Param days query int false "Últimos N días terminando hoy"
// @Param from query string false "Fecha inicial YYYY-MM-DD"
// @Param to query string false "Fecha final YYYY-MM-DD"
// @Success 200 {object} statsResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /adherence/stats [get]
func statsHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		q := r.URL.Query()
		var (
			st  Stats
			err error
		)
		if q.Get("from") != "" || q.Get("to") != "" {
			from, ferr := civil.ParseDate(q.Get("from"))
			to, terr := civil.ParseDate(q.Get("to"))
			if ferr != nil || terr != nil {
				writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
				return
			}
			st, err = agg.Stats(r.Context(), userID, from, to)
		} else {
			days := DefaultStatsDays
			if raw := strings.TrimSpace(q.Get("days")); raw != "" {
				n, perr := strconv.Atoi(raw)
				if perr != nil {
					writeError(w, http.StatusBadRequest, "days must be an integer")
					return
				}
				days = n
			}
			st, err = agg.LastDays(r.Context(), userID, days)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toStatsResponse(st))
	}
}

// historyHandler godoc
// @Summary Historial de una toma
// @Description Todos los eventos registrados para una toma, en orden de registro.
// @Tags adherence
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medication_id query string true "ID de la medicación"
// @Param scheduled_time query string true "Horario programado"
// @Success 200 {array} eventResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /adherence/history [get]
func historyHandler(ledger *Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		q := r.URL.Query()
		medID := strings.TrimSpace(q.Get("medication_id"))
		if medID == "" {
			writeError(w, http.StatusBadRequest, "medication_id is required")
			return
		}
		at, err := ledger.ParseScheduledTime(q.Get("scheduled_time"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		events, err := ledger.History(r.Context(), userID, medID, at)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]eventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, toEventResponse(e, ledger.Location()))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toEventResponse(e Event, loc *time.Location) eventResponse {
	return eventResponse{
		ID:            e.ID,
		MedicationID:  e.MedicationID,
		ScheduledTime: e.ScheduledAt.In(loc),
		Status:        e.Status,
		Source:        e.Source,
		LoggedAt:      e.LoggedAt.In(loc),
		Note:          e.Note,
	}
}

func toStatsResponse(s Stats) statsResponse {
	out := statsResponse{
		From:          s.From.String(),
		To:            s.To.String(),
		Taken:         s.Taken,
		Missed:        s.Missed,
		Skipped:       s.Skipped,
		Pending:       s.Pending,
		TotalDoses:    s.TotalDoses,
		AdherenceRate: s.AdherenceRate,
		Daily:         make(map[string]DayStats, len(s.Daily)),
		Days:          make([]dayStatsResponse, 0, len(s.Daily)),
	}
	for d, ds := range s.Daily {
		out.Daily[d.String()] = ds
		out.Days = append(out.Days, dayStatsResponse{Date: d.String(), DayStats: ds})
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, medications.ErrNotFound):
		writeError(w, http.StatusNotFound, "medication not found")
	case errors.Is(err, ErrInvalidDoseReference):
		writeError(w, http.StatusUnprocessableEntity, "no scheduled dose for that medication at scheduled_time")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
