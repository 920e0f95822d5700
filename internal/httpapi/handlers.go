package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/engine"
	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/patterns"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

// CreateProjectRequest is the request body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name          string            `json:"name"`
	ClientName    string            `json:"client_name"`
	ProjectType   string            `json:"project_type"`
	ClientType    string            `json:"client_type"`
	Objectives    []string          `json:"objectives"`
	Stakeholders  []string          `json:"stakeholders"`
	ContractValue float64           `json:"contract_value"`
	Currency      string            `json:"currency"`
	Actor         string            `json:"actor"`
	Metadata      map[string]string `json:"metadata"`
}

// EvidenceRequest is the request body for POST /api/v1/projects/:id/evidence.
type EvidenceRequest struct {
	Requirement string `json:"requirement"`
	Satisfied   bool   `json:"satisfied"`
	Actor       string `json:"actor"`
}

// TransitionRequest is the request body for POST /api/v1/projects/:id/transition.
type TransitionRequest struct {
	Target        string `json:"target"`
	Actor         string `json:"actor"`
	Override      bool   `json:"override"`
	Justification string `json:"justification"`
}

// ResolveRequest is the request body for POST /api/v1/decisions/:id/resolve.
type ResolveRequest struct {
	Approve       bool   `json:"approve"`
	Actor         string `json:"actor"`
	Justification string `json:"justification"`
}

// ConfirmRequest is the request body for POST /api/v1/payments/:id/confirm.
type ConfirmRequest struct {
	ExternalReference string `json:"external_reference"`
	Actor             string `json:"actor"`
}

// CancelRequest is the request body for the gate cancel endpoints.
type CancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// AuditResponse is the response body for GET /api/v1/projects/:id/audit.
type AuditResponse struct {
	ProjectID string              `json:"project_id"`
	Entries   []*store.AuditEntry `json:"entries"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCreateProject registers a new project at the initial state.
func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid create project request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.machine.CreateProject(c.Request().Context(), &engine.CreateProjectRequest{
		Name:          req.Name,
		ClientName:    req.ClientName,
		ProjectType:   req.ProjectType,
		ClientType:    req.ClientType,
		Objectives:    req.Objectives,
		Stakeholders:  req.Stakeholders,
		ContractValue: req.ContractValue,
		Currency:      req.Currency,
		Actor:         req.Actor,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, p)
}

// handleGetProject returns a project by ID.
func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.machine.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// handleRecordEvidence marks a checklist requirement satisfied or not.
func (s *Server) handleRecordEvidence(c echo.Context) error {
	var req EvidenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Requirement == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requirement field is required")
	}

	p, err := s.machine.RecordEvidence(c.Request().Context(), c.Param("id"), req.Requirement, req.Actor, req.Satisfied)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// handleRequestTransition asks the engine to advance a project.
func (s *Server) handleRequestTransition(c echo.Context) error {
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	target, err := maturity.ParseState(req.Target)
	if err != nil {
		return httpError(err)
	}

	result, err := s.machine.RequestTransition(c.Request().Context(), &engine.TransitionRequest{
		ProjectID:     c.Param("id"),
		Target:        target,
		Actor:         req.Actor,
		Override:      req.Override,
		Justification: req.Justification,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// handleResolveDecision applies a human approval or rejection.
func (s *Server) handleResolveDecision(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.machine.ResolveDecision(c.Request().Context(), c.Param("id"), req.Approve, req.Actor, req.Justification)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleCancelDecision withdraws a pending decision gate.
func (s *Server) handleCancelDecision(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	gate, err := s.machine.CancelDecisionGate(c.Request().Context(), c.Param("id"), req.Actor, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, gate)
}

// handleConfirmPayment records an external billing confirmation.
func (s *Server) handleConfirmPayment(c echo.Context) error {
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.machine.ConfirmPayment(c.Request().Context(), c.Param("id"), req.ExternalReference, req.Actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleCancelPayment withdraws an open payment gate.
func (s *Server) handleCancelPayment(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	gate, err := s.machine.CancelPaymentGate(c.Request().Context(), c.Param("id"), req.Actor, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, gate)
}

// handleListAudit returns a project's audit trail in sequence order. An
// event_type query param narrows the trail to one event type, which is how
// override usage stays independently queryable.
func (s *Server) handleListAudit(c echo.Context) error {
	projectID := c.Param("id")

	var entries []*store.AuditEntry
	var err error
	if eventType := c.QueryParam("event_type"); eventType != "" {
		entries, err = s.trail.ListByType(c.Request().Context(), projectID, eventType)
	} else {
		entries, err = s.trail.ListProject(c.Request().Context(), projectID)
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, AuditResponse{ProjectID: projectID, Entries: entries})
}

// handleAnalysis mines delivery patterns for the project's cohort.
func (s *Server) handleAnalysis(c echo.Context) error {
	if s.analyzer == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "pattern analysis is not configured")
	}

	p, err := s.machine.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	analysis, err := s.analyzer.Analyze(c.Request().Context(), patterns.ProjectContext{
		ProjectType: p.ProjectType,
		ClientType:  p.ClientType,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, analysis)
}
