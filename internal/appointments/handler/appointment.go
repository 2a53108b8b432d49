package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"medibuddy/internal/appointments/service"
	"medibuddy/pkg/auth"
	apperrors "medibuddy/pkg/errors"
	httputil "medibuddy/pkg/http"
	"medibuddy/pkg/logger"
	"medibuddy/pkg/model"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.identity(w, r, "Create")
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.CreateAppointment(r.Context(), req.DoctorID, actor.UserID, req.DateTime, req.Type, req.Symptoms, req.PaymentAmount)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, appointmentBody(appt)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.identity(w, r, "Mine")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	appointments, totalCount, err := h.service.Mine(r.Context(), actor, limit, offset)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Mine", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "GetByID")
	if !ok {
		return
	}

	appt, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointmentBody(appt)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "UpdateStatus")
	if !ok {
		return
	}

	var req model.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "UpdateStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.ChangeStatus(r.Context(), actor, ps.ByName("id"), req.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointmentBody(appt)); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "Reschedule")
	if !ok {
		return
	}

	var req model.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Reschedule", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.Reschedule(r.Context(), actor, ps.ByName("id"), req.DateTime)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointmentBody(appt)); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) UpdateNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "UpdateNotes")
	if !ok {
		return
	}

	var req model.NotesUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "UpdateNotes", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.UpdateNotes(r.Context(), actor, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "UpdateNotes", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointmentBody(appt)); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateNotes", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	days, err := intParam(query.Get("days"), "days")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	interval, err := intParam(query.Get("interval"), "interval")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	availability, err := h.service.Availability(r.Context(), ps.ByName("doctorId"), days, interval)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Upcoming(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "Upcoming")
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	appointments, totalCount, err := h.service.Upcoming(r.Context(), actor, ps.ByName("doctorId"), limit, offset)
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Upcoming", "operation", "WritePaginated", "error", err)
	}
}

// appointmentBody nests a single record under "appointment" in the data envelope.
func appointmentBody(appt *model.Appointment) map[string]any {
	return map[string]any{"appointment": appt}
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", name, raw))
	}
	return n, nil
}

func (h *AppointmentHandler) identity(w http.ResponseWriter, r *http.Request, handler string) (auth.Identity, bool) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
	}
	return actor, ok
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Create)
	router.GET("/api/v1/appointments/mine", h.Mine)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PATCH("/api/v1/appointments/id/:id/status", h.UpdateStatus)
	router.PATCH("/api/v1/appointments/id/:id/reschedule", h.Reschedule)
	router.PATCH("/api/v1/appointments/id/:id/notes", h.UpdateNotes)
	router.GET("/api/v1/appointments/doctor/:doctorId/availability", h.Availability)
	router.GET("/api/v1/appointments/doctor/:doctorId/upcoming", h.Upcoming)
}
