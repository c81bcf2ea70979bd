package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/Hum-Bao/canvas-enable-totals/internal/app"
	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

type SettingsHandler struct {
	service *app.Service
}

func NewSettingsHandler(service *app.Service) *SettingsHandler {
	return &SettingsHandler{
		service: service,
	}
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	settings, err := h.service.LoadSettings(r.Context(), course)
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to fetch settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	var settings models.CourseSettings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// the path wins over whatever the body claims
	settings.Course = course

	if err := h.service.SaveSettings(r.Context(), &settings); err != nil {
		if errors.Is(err, app.ErrInvalidSettings) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, &settings)
}

func (h *SettingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	if err := h.service.DeleteSettings(r.Context(), course); err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to delete settings", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to list courses", http.StatusInternalServerError)
		return
	}
	if courses == nil {
		courses = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
	})
}
