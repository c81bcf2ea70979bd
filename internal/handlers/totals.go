package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/Hum-Bao/canvas-enable-totals/internal/app"
	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

const (
	maxPageBytes = 8 << 20
	maxJSONBytes = 1 << 20
)

type TotalsHandler struct {
	service *app.Service
}

func NewTotalsHandler(service *app.Service) *TotalsHandler {
	return &TotalsHandler{
		service: service,
	}
}

type totalsRequest struct {
	Assignments    models.RecordsByCategory `json:"assignments"`
	DefaultWeights models.WeightMap         `json:"default_weights"`
}

func (req *totalsRequest) validate() error {
	for category, records := range req.Assignments {
		if category == "" {
			return fmt.Errorf("category name must not be empty")
		}
		for i := range records {
			if err := records[i].Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", category, i, err)
			}
		}
	}
	return nil
}

func (h *TotalsHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	var req totalsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		logger.Debug.Printf("Rejected assignments for course %s: %v", course, err)
		http.Error(w, fmt.Sprintf("Invalid assignments: %v", err), http.StatusBadRequest)
		return
	}

	res := h.service.ComputeTotals(r.Context(), course, req.Assignments, req.DefaultWeights)
	w.Header().Set("X-Grade-Total", res.Display())
	writeJSON(w, http.StatusOK, res)
}

func (h *TotalsHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	html, ok := readPage(w, r)
	if !ok {
		return
	}

	res, err := h.service.ComputeFromPage(r.Context(), course, html)
	if err != nil {
		logger.Error.Printf("Failed to compute totals for course %s: %v", course, err)
		http.Error(w, "Failed to process grades page", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("X-Grade-Total", res.Display())
	writeJSON(w, http.StatusOK, res)
}

func (h *TotalsHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	course := chi.URLParam(r, "course")

	html, ok := readPage(w, r)
	if !ok {
		return
	}

	out, res, err := h.service.RenderPage(r.Context(), course, html)
	if err != nil {
		logger.Error.Printf("Failed to render totals for course %s: %v", course, err)
		http.Error(w, "Failed to process grades page", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Grade-Total", res.Display())
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func readPage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPageBytes))
	if err != nil {
		logger.Error.Printf("Failed to read request body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) == 0 {
		http.Error(w, "Empty grades page", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error.Printf("Error encoding response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug.Printf("Error writing response: %v", err)
	}
}
