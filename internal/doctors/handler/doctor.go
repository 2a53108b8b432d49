package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medibuddy/internal/doctors/service"
	"medibuddy/pkg/auth"
	apperrors "medibuddy/pkg/errors"
	httputil "medibuddy/pkg/http"
	"medibuddy/pkg/logger"
	"medibuddy/pkg/model"
)

type DoctorHandler struct {
	service service.DoctorService
	log     *logger.Logger
}

func NewDoctorHandler(service service.DoctorService, log *logger.Logger) *DoctorHandler {
	return &DoctorHandler{
		service: service,
		log:     log,
	}
}

func (h *DoctorHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	query := r.URL.Query()
	filter := model.DoctorFilter{
		Name:           query.Get("name"),
		Specialization: query.Get("specialization"),
		Query:          query.Get("q"),
	}

	doctors, totalCount, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, doctors, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *DoctorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctor, err := h.service.GetDoctor(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctor); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) ReplaceAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "ReplaceAvailability")
	if !ok {
		return
	}

	var update model.AvailabilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "ReplaceAvailability", apperrors.InvalidInput("Invalid request body"))
		return
	}

	windows, err := h.service.ReplaceAvailability(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "ReplaceAvailability", err)
		return
	}

	if err := httputil.WriteMessage(w, "Availability updated successfully", map[string]any{
		"availability": windows,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ReplaceAvailability", "operation", "WriteMessage", "error", err)
	}
}

func (h *DoctorHandler) Stats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "Stats")
	if !ok {
		return
	}

	counts, err := h.service.Stats(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, counts); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) SetOnline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.identity(w, r, "SetOnline")
	if !ok {
		return
	}

	var update model.OnlineUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Online == nil {
		h.writeError(w, "SetOnline", apperrors.InvalidInput("online must be a boolean"))
		return
	}

	if err := h.service.SetOnline(r.Context(), actor, ps.ByName("id"), *update.Online); err != nil {
		h.writeError(w, "SetOnline", err)
		return
	}

	if err := httputil.WriteMessage(w, "Online status updated", map[string]any{
		"online": *update.Online,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "SetOnline", "operation", "WriteMessage", "error", err)
	}
}

func (h *DoctorHandler) SampleAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.identity(w, r, "SampleAvailability")
	if !ok {
		return
	}

	updated, err := h.service.SampleAvailability(r.Context(), actor)
	if err != nil {
		h.writeError(w, "SampleAvailability", err)
		return
	}

	if err := httputil.WriteMessage(w, "Sample availability applied", map[string]any{
		"doctorsUpdated": updated,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "SampleAvailability", "operation", "WriteMessage", "error", err)
	}
}

func (h *DoctorHandler) identity(w http.ResponseWriter, r *http.Request, handler string) (auth.Identity, bool) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
	}
	return actor, ok
}

func (h *DoctorHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *DoctorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors", h.Search)
	router.POST("/api/v1/doctors/sample-availability", h.SampleAvailability)
	router.GET("/api/v1/doctors/id/:id", h.GetByID)
	router.PUT("/api/v1/doctors/id/:id/availability", h.ReplaceAvailability)
	router.GET("/api/v1/doctors/id/:id/stats", h.Stats)
	router.PATCH("/api/v1/doctors/id/:id/online", h.SetOnline)
}
