package interactions

import (
	"encoding/json"
	"errors"
	"net/http"

	"medication-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, checker *Checker) {
	r.Route("/interactions", func(ir chi.Router) {
		ir.Get("/", activeInteractionsHandler(checker))
		ir.Post("/check", checkInteractionsHandler(checker))
	})
}

type checkRequest struct {
	Medications []string `json:"medications"`
}

type checkResponse struct {
	Interactions []Interaction `json:"interactions"`
}

type activeResponse struct {
	Medications  []string      `json:"medications"`
	Interactions []Interaction `json:"interactions"`
}

// checkInteractionsHandler godoc
// @Summary Chequear interacciones
// @Description Evalúa todos los pares de la lista (sin distinguir mayúsculas). Ordenado por severidad y luego por nombre. Con menos de dos nombres devuelve una lista vacía.
// @Tags interactions
// @Accept json
// @Produce json
// @Param payload body checkRequest true "Nombres de medicamentos"
// @Success 200 {object} checkResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /interactions/check [post]
func checkInteractionsHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		found, err := checker.Check(r.Context(), req.Medications)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checkResponse{Interactions: found})
	}
}

// activeInteractionsHandler godoc
// @Summary Interacciones de mis medicaciones
// @Description Igual que /interactions/check pero con las medicaciones vigentes hoy del usuario.
// @Tags interactions
// @Produce json
// @Success 200 {object} activeResponse
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /interactions [get]
func activeInteractionsHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		found, names, err := checker.CheckActive(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, activeResponse{Medications: names, Interactions: found})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func authenticated(r *http.Request) bool {
	_, ok := middleware.UserID(r.Context())
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
