package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/po-workflow/internal/application/workflow"
	"github.com/garyjia/po-workflow/internal/domain/authz"
	domainwf "github.com/garyjia/po-workflow/internal/domain/workflow"
)

// RoleHeader carries the caller's role
const RoleHeader = "X-Role"

// WorkflowService is the part of the workflow manager the handlers use
type WorkflowService interface {
	Start(ctx context.Context, workflowType string) (*domainwf.StateMachine, error)
	Open(ctx context.Context, workflowType, id string) (*domainwf.StateMachine, error)
	Get(ctx context.Context, id string) (*domainwf.Snapshot, error)
	Advance(ctx context.Context, workflowType, id string, req workflow.AdvanceRequest) (*domainwf.StateMachine, *domainwf.AuditRecord, error)
	History(ctx context.Context, id string) ([]*domainwf.AuditRecord, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	service WorkflowService
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service WorkflowService, logger Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateWorkflowRequest is the body of POST /api/v1/workflows
type CreateWorkflowRequest struct {
	Type string `json:"type" binding:"required"`
}

// FireRequest is the body of POST /api/v1/workflows/:id/fire
type FireRequest struct {
	Type       string `json:"type" binding:"required"`
	Trigger    string `json:"trigger" binding:"required"`
	EntityType string `json:"entity_type"`
}

// WorkflowResponse represents a state machine in API responses
type WorkflowResponse struct {
	ID                string   `json:"id"`
	Type              string   `json:"type,omitempty"`
	State             string   `json:"state"`
	Terminal          bool     `json:"terminal"`
	Version           int64    `json:"version,omitempty"`
	PermittedTriggers []string `json:"permitted_triggers,omitempty"`
	LastTransition    *string  `json:"last_transition,omitempty"`
	CreatedAt         string   `json:"created_at,omitempty"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
}

// TransitionResponse represents one audit record in API responses
type TransitionResponse struct {
	ID             string `json:"id"`
	Sequence       int64  `json:"sequence"`
	From           string `json:"from"`
	To             string `json:"to"`
	Trigger        string `json:"trigger"`
	TransitionTime string `json:"transition_time"`
}

// FireResponse is returned after a successful transition
type FireResponse struct {
	Workflow   WorkflowResponse   `json:"workflow"`
	Transition TransitionResponse `json:"transition"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateWorkflow handles POST /api/v1/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sm, err := h.service.Start(c.Request.Context(), req.Type)
	if err != nil {
		h.fail(c, statusFor(err), err.Error(), err)
		return
	}

	resp := toWorkflowResponse(sm)
	resp.Type = req.Type
	c.JSON(http.StatusCreated, Response{Success: true, Data: resp})
}

// GetWorkflow handles GET /api/v1/workflows/:id.
// With ?type= the permitted triggers of the current state are included.
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	snapshot, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(c, statusFor(err), "workflow not found", err)
		return
	}

	resp := toSnapshotResponse(snapshot)

	if workflowType := c.Query("type"); workflowType != "" {
		sm, err := h.service.Open(ctx, workflowType, id)
		if err != nil {
			h.fail(c, statusFor(err), err.Error(), err)
			return
		}
		resp.Type = workflowType
		resp.PermittedTriggers = triggerLabels(sm.PermittedTriggers())
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// FireTrigger handles POST /api/v1/workflows/:id/fire
func (h *Handlers) FireTrigger(c *gin.Context) {
	id := c.Param("id")

	role := c.GetHeader(RoleHeader)
	if role == "" {
		h.fail(c, http.StatusUnauthorized, RoleHeader+" header is required", nil)
		return
	}

	var req FireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.EntityType == "" {
		req.EntityType = authz.EntityPurchaseOrder
	}

	sm, record, err := h.service.Advance(c.Request.Context(), req.Type, id, workflow.AdvanceRequest{
		Role:       authz.Role(role),
		EntityType: req.EntityType,
		Trigger:    domainwf.Trigger(req.Trigger),
	})
	if err != nil {
		h.fail(c, statusFor(err), err.Error(), err)
		return
	}

	h.logger.Infow("Trigger fired",
		"id", id,
		"role", role,
		"trigger", req.Trigger,
		"state", sm.CurrentState().String(),
		"sequence", record.Sequence,
	)

	resp := toWorkflowResponse(sm)
	resp.Type = req.Type
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: FireResponse{
			Workflow:   resp,
			Transition: toTransitionResponse(record),
		},
	})
}

// GetHistory handles GET /api/v1/workflows/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.service.Get(ctx, id); err != nil {
		h.fail(c, statusFor(err), "workflow not found", err)
		return
	}

	records, err := h.service.History(ctx, id)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to retrieve history", err)
		return
	}

	history := make([]TransitionResponse, 0, len(records))
	for _, record := range records {
		history = append(history, toTransitionResponse(record))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

func (h *Handlers) fail(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("Request failed", "path", c.Request.URL.Path, "status", status, "error", err)
		message = http.StatusText(status)
	}
	c.JSON(status, Response{Success: false, Error: message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrUnknownWorkflow), errors.Is(err, domainwf.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, authz.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domainwf.ErrUndefinedTransition), errors.Is(err, domainwf.ErrStaleState):
		return http.StatusConflict
	case errors.Is(err, domainwf.ErrActionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toWorkflowResponse(sm *domainwf.StateMachine) WorkflowResponse {
	return WorkflowResponse{
		ID:                sm.ID(),
		State:             sm.CurrentState().String(),
		Terminal:          sm.CurrentState().IsTerminal(),
		PermittedTriggers: triggerLabels(sm.PermittedTriggers()),
	}
}

func toSnapshotResponse(s *domainwf.Snapshot) WorkflowResponse {
	resp := WorkflowResponse{
		ID:        s.ID,
		State:     s.State.String(),
		Terminal:  s.State.IsTerminal(),
		Version:   s.Version,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
	if s.LastTransition != nil {
		last := s.LastTransition.Format(time.RFC3339)
		resp.LastTransition = &last
	}
	return resp
}

func toTransitionResponse(r *domainwf.AuditRecord) TransitionResponse {
	return TransitionResponse{
		ID:             r.ID,
		Sequence:       r.Sequence,
		From:           r.FromState.String(),
		To:             r.ToState.String(),
		Trigger:        r.Trigger.String(),
		TransitionTime: r.TransitionTime.Format(time.RFC3339Nano),
	}
}

func triggerLabels(triggers []domainwf.Trigger) []string {
	labels := make([]string, 0, len(triggers))
	for _, t := range triggers {
		labels = append(labels, t.String())
	}
	return labels
}
