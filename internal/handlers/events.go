package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seatwise-systems/seatwise/internal/httputil"
	"github.com/seatwise-systems/seatwise/internal/intake"
	"github.com/seatwise-systems/seatwise/internal/middleware"
	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
	"github.com/seatwise-systems/seatwise/internal/service"
)

// EventHandler exposes the event catalog and the registration surface.
type EventHandler struct {
	catalog *service.CatalogService
	intake  *intake.Service
}

func NewEventHandler(catalog *service.CatalogService, intake *intake.Service) *EventHandler {
	return &EventHandler{
		catalog: catalog,
		intake:  intake,
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	organizerID := middleware.GetUserID(r.Context())
	event, err := h.catalog.CreateEvent(r.Context(), organizerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingName), errors.Is(err, service.ErrInvalidCapacity):
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to create event")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.catalog.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "event not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load event")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	p := httputil.ParsePagination(r, 20, 100)

	events, total, err := h.catalog.ListEvents(r.Context(), p.Limit, p.Offset())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.EventListResponse{
		Events: events,
		Total:  total,
	})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.catalog.UpdateEvent(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			httputil.WriteError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrInvalidCapacity):
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to update event")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "event not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Register enqueues a registration attempt. The 202 response acknowledges
// submission only; the admission outcome is delivered asynchronously.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	userID := middleware.GetUserID(r.Context())

	resp, err := h.intake.Submit(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			httputil.WriteError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, intake.ErrEventClosed):
			httputil.WriteError(w, http.StatusConflict, "event is closed for registration")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to submit registration")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, resp)
}

// Unregister removes the caller's committed registration.
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	userID := middleware.GetUserID(r.Context())

	if err := h.catalog.Unregister(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "registration not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to unregister")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegistrationCount reports the live committed count against capacity.
func (h *EventHandler) RegistrationCount(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.RegistrationCount(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "event not found")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to count registrations")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
