package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arkodent/clinic/internal/appointment"
	"github.com/arkodent/clinic/internal/audit"
	"github.com/arkodent/clinic/internal/auth"
	"github.com/arkodent/clinic/internal/ident"
	"github.com/arkodent/clinic/internal/patient"
	"github.com/arkodent/clinic/internal/settings"
)

type Handler struct {
	authService    auth.Service
	patientService patient.Service
	auditService   audit.Service
	settings       *settings.Store
}

func NewHandler(authService auth.Service, patientService patient.Service, auditService audit.Service, st *settings.Store) *Handler {
	return &Handler{
		authService:    authService,
		patientService: patientService,
		auditService:   auditService,
		settings:       st,
	}
}

// Authentication

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Patients

type patientResponse struct {
	patient.Record
	Revision uint64 `json:"revision"`
}

func toResponse(p *patient.Patient) patientResponse {
	return patientResponse{Record: p.ToRecord(), Revision: p.Revision()}
}

type patientFieldsRequest struct {
	Name      *string `json:"name"`
	BirthYear *int    `json:"birthYear"`
	Gender    *string `json:"gender"`
	Tags      *string `json:"tags"`
	Address   *string `json:"address"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

func (req *patientFieldsRequest) apply(p *patient.Patient) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.BirthYear != nil {
		p.BirthYear = *req.BirthYear
	}
	if req.Gender != nil {
		p.Gender = patient.GenderFromString(*req.Gender)
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
}

// ListPatients returns every patient, filtered by the optional q parameter
// (case-insensitive substring over the derived searchable string).
func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.patientService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve patients"})
		return
	}

	data := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		data = append(data, toResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req patientFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := patient.New()
	req.apply(p)

	if err := h.patientService.Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create patient"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": toResponse(p)})
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.patientService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toResponse(p)})
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var req patientFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The snapshot is taken inside the closure so it reflects the state the
	// service persisted.
	var resp patientResponse
	err := h.patientService.Mutate(c.Request.Context(), c.Param("id"), func(p *patient.Patient) error {
		req.apply(p)
		resp = toResponse(p)
		return nil
	})
	if err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.patientService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "patient deleted"})
}

// GetPatientSummary returns the derived attributes the patient list renders.
func (h *Handler) GetPatientSummary(c *gin.Context) {
	summary, err := h.patientService.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h *Handler) GetPatientAppointments(c *gin.Context) {
	appointments, err := h.patientService.Appointments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": appointments})
}

// Tracked collection mutations. Each goes through the entity's mutation
// helpers so the revision counter advances, and each response carries the
// new revision for the caller's dirty-checking.

type entryRequest struct {
	Entry string `json:"entry" binding:"required"`
}

func (h *Handler) AddMedicalHistory(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(p *patient.Patient) error {
		p.AddMedicalHistory(req.Entry)
		return nil
	})
}

func (h *Handler) RemoveMedicalHistory(c *gin.Context) {
	h.mutateAt(c, func(p *patient.Patient, i int) bool {
		return p.RemoveMedicalHistory(i)
	})
}

type imageRequest struct {
	Image string `json:"image" binding:"required"`
}

func (h *Handler) AddGalleryImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(p *patient.Patient) error {
		p.AddGalleryImage(req.Image)
		return nil
	})
}

func (h *Handler) RemoveGalleryImage(c *gin.Context) {
	h.mutateAt(c, func(p *patient.Patient, i int) bool {
		return p.RemoveGalleryImage(i)
	})
}

type labelRequest struct {
	Text string `json:"text" binding:"required"`
	Type string `json:"type"`
}

func (h *Handler) AddLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(p *patient.Patient) error {
		p.AddLabel(patient.Label{
			Text:     req.Text,
			Category: patient.LabelCategoryFromString(req.Type),
		})
		return nil
	})
}

func (h *Handler) RemoveLabel(c *gin.Context) {
	h.mutateAt(c, func(p *patient.Patient, i int) bool {
		return p.RemoveLabel(i)
	})
}

type noteRequest struct {
	Note string `json:"note" binding:"required"`
}

func (h *Handler) AddToothNote(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tooth position"})
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(p *patient.Patient) error {
		p.AddToothNote(position, req.Note)
		return nil
	})
}

func (h *Handler) RemoveToothNote(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tooth position"})
		return
	}

	h.mutateAt(c, func(p *patient.Patient, i int) bool {
		return p.RemoveToothNote(position, i)
	})
}

// Appointments

func (h *Handler) SaveAppointment(c *gin.Context) {
	var a appointment.Appointment
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if a.ID == "" {
		a.ID = ident.New()
	}

	if err := h.patientService.SaveAppointment(c.Request.Context(), a); err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": a})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	if err := h.patientService.DeleteAppointment(c.Request.Context(), c.Param("id")); err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "appointment deleted"})
}

// Audit logs

func (h *Handler) GetAuditLogs(c *gin.Context) {
	from, err := strconv.Atoi(c.DefaultQuery("from", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' parameter"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'size' parameter"})
		return
	}

	filters := map[string]interface{}{}
	if userID := c.Query("user_id"); userID != "" {
		filters["user_id"] = userID
	}
	if eventType := c.Query("event_type"); eventType != "" {
		filters["event_type"] = eventType
	}
	if resource := c.Query("resource"); resource != "" {
		filters["resource"] = resource
	}

	events, err := h.auditService.QueryEvents(c.Request.Context(), filters, from, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// Settings

func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	c.JSON(http.StatusOK, gin.H{"key": key, "value": h.settings.GetSetting(key)})
}

// helpers

// mutate runs fn on the patient through Service.Mutate, which applies it and
// persists the result under the service lock, then responds with the new
// revision.
func (h *Handler) mutate(c *gin.Context, fn func(p *patient.Patient) error) {
	var revision uint64
	err := h.patientService.Mutate(c.Request.Context(), c.Param("id"), func(p *patient.Patient) error {
		if err := fn(p); err != nil {
			return err
		}
		revision = p.Revision()
		return nil
	})
	if err != nil {
		h.patientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revision": revision})
}

// mutateAt is mutate for index-addressed removals.
func (h *Handler) mutateAt(c *gin.Context, fn func(p *patient.Patient, i int) bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	h.mutate(c, func(p *patient.Patient) error {
		if !fn(p, index) {
			return patient.ErrNoSuchEntry
		}
		return nil
	})
}

func (h *Handler) patientError(c *gin.Context, err error) {
	if errors.Is(err, patient.ErrPatientNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		return
	}
	if errors.Is(err, patient.ErrNoSuchEntry) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no entry at index"})
		return
	}
	if errors.Is(err, patient.ErrInvalidPatientData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient data"})
		return
	}
	if errors.Is(err, patient.ErrInvalidAppointmentData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment data"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
