package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	appStreetlight "github.com/erickfunier/lumenq/internal/application/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StreetlightHandlers handles HTTP requests for streetlight operations
type StreetlightHandlers struct {
	service *appStreetlight.Service
}

// NewStreetlightHandlers creates new streetlight HTTP handlers
func NewStreetlightHandlers(service *appStreetlight.Service) *StreetlightHandlers {
	return &StreetlightHandlers{service: service}
}

type PositionResponse struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

type StreetlightResponse struct {
	ID        int64            `json:"id"`
	Position  PositionResponse `json:"position"`
	Lumens    int64            `json:"lumens"`
	UpdatedAt string           `json:"updatedAt"`
}

type CreateStreetlightRequest struct {
	Position PositionResponse `json:"position"`
	Lumens   int64            `json:"lumens"`
}

type SetBrightnessRequest struct {
	DesiredLumens *int64 `json:"desiredLumens"`
}

type SetBrightnessResponse struct {
	JobID         string `json:"jobId"`
	StreetlightID int64  `json:"streetlightId"`
	DesiredLumens int64  `json:"desiredLumens"`
	Status        string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toStreetlightResponse(light *streetlight.Streetlight) StreetlightResponse {
	return StreetlightResponse{
		ID:        light.ID,
		Position:  PositionResponse{Lat: light.Position.Lat, Long: light.Position.Long},
		Lumens:    light.Lumens,
		UpdatedAt: light.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *StreetlightHandlers) ListStreetlights(w http.ResponseWriter, r *http.Request) {
	lights, err := h.service.ListStreetlights(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]StreetlightResponse, 0, len(lights))
	for _, light := range lights {
		response = append(response, toStreetlightResponse(light))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *StreetlightHandlers) GetStreetlight(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	light, err := h.service.GetStreetlight(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStreetlightResponse(light))
}

func (h *StreetlightHandlers) CreateStreetlight(w http.ResponseWriter, r *http.Request) {
	var req CreateStreetlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	light, err := h.service.AddStreetlight(r.Context(), appStreetlight.AddStreetlightCommand{
		Lat:    req.Position.Lat,
		Long:   req.Position.Long,
		Lumens: req.Lumens,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/streetlights/"+strconv.FormatInt(light.ID, 10))
	writeJSON(w, r, http.StatusCreated, toStreetlightResponse(light))
}

// SetBrightness accepts a brightness change and answers before it happens
func (h *StreetlightHandlers) SetBrightness(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req SetBrightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DesiredLumens == nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "desiredLumens is required"})
		return
	}

	job, err := h.service.RequestBrightness(r.Context(), id, *req.DesiredLumens)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, SetBrightnessResponse{
		JobID:         job.JobID().String(),
		StreetlightID: job.StreetlightID,
		DesiredLumens: job.DesiredLumens,
		Status:        string(queue.StatusEnqueued),
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid streetlight id"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, streetlight.ErrStreetlightNotFound):
		status = http.StatusNotFound
	case errors.Is(err, streetlight.ErrInvalidID),
		errors.Is(err, streetlight.ErrInvalidLumens),
		errors.Is(err, streetlight.ErrInvalidPosition):
		status = http.StatusBadRequest
	case errors.Is(err, queue.ErrQueueClosed):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			slog.String("requestId", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		message = "internal error"
	}
	writeJSON(w, r, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.WarnContext(r.Context(), "Failed to encode response",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}
