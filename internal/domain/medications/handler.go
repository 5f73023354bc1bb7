package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"medication-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Get("/", listMedicationsHandler(svc))
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/{medicationID}", getMedicationHandler(svc))
		mr.Put("/{medicationID}", updateMedicationHandler(svc))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc))
	})
}

// createMedicationRequest es el cuerpo para registrar un tratamiento.
type createMedicationRequest struct {
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency Frequency `json:"frequency" enums:"daily,twice_daily,three_times,weekly,as_needed"`
	TimeOfDay []string  `json:"time_of_day"` // HH:MM
	StartDate string    `json:"start_date"`  // YYYY-MM-DD
	EndDate   string    `json:"end_date"`    // opcional
	Notes     string    `json:"notes"`
}

// updateMedicationRequest: punteros para update parcial. end_date admite null.
type updateMedicationRequest struct {
	Name      *string   `json:"name"`
	Dosage    *string   `json:"dosage"`
	Frequency *string   `json:"frequency"`
	TimeOfDay *[]string `json:"time_of_day"`
	StartDate *string   `json:"start_date"`
	Notes     *string   `json:"notes"`
}

// medicationResponse representa una medicación devuelta por la API.
type medicationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency Frequency `json:"frequency"`
	TimeOfDay []string  `json:"time_of_day"`
	StartDate string    `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// listMedicationsHandler godoc
// @Summary Listar medicaciones
// @Description Lista las medicaciones no borradas del usuario autenticado, en orden de alta.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} medicationResponse
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Security BearerAuth
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createMedicationHandler godoc
// @Summary Registrar medicación
// @Description Crea una medicación. time_of_day debe tener 1/2/3 horarios para daily/twice_daily/three_times, al menos uno para weekly, y se ignora para as_needed.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createMedicationRequest true "Datos de la medicación"
// @Success 201 {object} medicationResponse
// @Failure 400 {object} errorResponse "validación"
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /medications [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		m, err := svc.Create(r.Context(), userID, CreateInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			Frequency: string(req.Frequency),
			TimeOfDay: req.TimeOfDay,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Notes:     req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

// getMedicationHandler godoc
// @Summary Obtener medicación
// @Description Devuelve una medicación del usuario.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID de la medicación"
// @Success 200 {object} medicationResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		m, err := svc.GetByID(r.Context(), userID, chi.URLParam(r, "medicationID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

// updateMedicationHandler godoc
// @Summary Actualizar medicación
// @Description Update parcial: solo se tocan los campos enviados. Para quitar end_date enviar null. El resultado se re-valida completo.
// @Tags medications
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body updateMedicationRequest true "Campos a modificar"
// @Success 200 {object} medicationResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /medications/{medicationID} [put]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Decodificamos a map primero para detectar presencia de end_date (null = limpiar).
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var req updateMedicationRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		end := PatchEndDate{}
		if v, exists := raw["end_date"]; exists {
			end.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD or null")
					return
				}
				end.Value = &s
			}
		}

		updated, err := svc.Update(r.Context(), userID, chi.URLParam(r, "medicationID"), UpdateInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			Frequency: req.Frequency,
			TimeOfDay: req.TimeOfDay,
			StartDate: req.StartDate,
			EndDate:   end,
			Notes:     req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicación
// @Description Borrado lógico. El historial de adherencia se conserva.
// @Tags medications
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Success 200 {object} messageResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /medications/{medicationID} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "medicationID")); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "medication deleted"})
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	slots := make([]string, 0, len(m.TimeOfDay))
	for _, c := range m.TimeOfDay {
		slots = append(slots, c.String())
	}
	var end *string
	if m.EndDate != nil {
		s := m.EndDate.String()
		end = &s
	}
	return medicationResponse{
		ID:        m.ID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		Frequency: m.Frequency,
		TimeOfDay: slots,
		StartDate: m.StartDate.String(),
		EndDate:   end,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "medication not found")
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
