package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/buildenv"
	"github.com/nofuss/sitecoach/internal/deploy"
	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/health"
	"github.com/nofuss/sitecoach/internal/llm"
	"github.com/nofuss/sitecoach/internal/memorybank"
	"github.com/nofuss/sitecoach/internal/metrics"
	"github.com/nofuss/sitecoach/internal/project"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	projects  *project.Store
	manager   *project.Manager
	bank      *memorybank.Bank
	catalogue *deploy.Catalogue
	buildEnv  buildenv.Client
	completer llm.Completer
	checker   *health.Checker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance. completer may be nil when no
// model provider is configured; chat endpoints then answer 503.
func NewHandlers(
	projects *project.Store,
	manager *project.Manager,
	bank *memorybank.Bank,
	catalogue *deploy.Catalogue,
	env buildenv.Client,
	completer llm.Completer,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		projects:  projects,
		manager:   manager,
		bank:      bank,
		catalogue: catalogue,
		buildEnv:  env,
		completer: completer,
		checker:   checker,
		metrics:   m,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// mapError converts domain errors to problem responses.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, errs.ErrMalformedSpecification):
		// Distinct type so callers can prompt the user to keep talking
		// instead of retrying blindly.
		return problemResponse(c, fiber.StatusBadRequest,
			"malformed_specification", "Bad Request", err.Error())
	case errors.Is(err, errs.ErrInvalidInput),
		errors.Is(err, errs.ErrInvalidStatus),
		errors.Is(err, errs.ErrInsufficientConversation):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_request", "Bad Request", err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return problemResponse(c, fiber.StatusUnauthorized,
			"unauthorized", "Unauthorized", err.Error())
	case errors.Is(err, errs.ErrUnavailable):
		return problemResponse(c, fiber.StatusInternalServerError,
			"upstream_unavailable", "Internal Server Error",
			"An upstream service is unavailable")
	default:
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error", "An internal error occurred")
	}
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"Project name is required")
	}

	handle, err := h.buildEnv.Provision(c.Context(), req.Name, req.Description)
	if err != nil {
		h.logger.Error().Err(err).Msg("build environment provisioning failed")
		return mapError(c, err)
	}

	p, err := h.projects.Create(c.Context(), ownerFromCtx(c), req.Name, req.Description, handle)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"project": p})
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context(), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.projects.Get(c.Context(), c.Params("id"), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"project": p})
}

// UpdateProject handles PUT /api/v1/projects/:id.
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	p, err := h.projects.Update(c.Context(), c.Params("id"), ownerFromCtx(c), project.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"project": p})
}

// GetStage handles GET /api/v1/projects/:id/stage.
func (h *Handlers) GetStage(c *fiber.Ctx) error {
	stage, err := h.manager.Stage(c.Context(), c.Params("id"), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(StageResponse{
		Stage:           string(stage),
		PercentComplete: project.PercentComplete(stage),
	})
}

// GetHistory handles GET /api/v1/projects/:id/history.
func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	// Ownership check before touching the history table.
	p, err := h.projects.Get(c.Context(), c.Params("id"), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	events, err := h.projects.ListHistory(c.Context(), p.ID)
	if err != nil {
		return mapError(c, err)
	}
	if events == nil {
		events = []*project.HistoryEvent{}
	}
	return c.JSON(events)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	ready := true
	for _, s := range results {
		if s == health.StatusDown {
			ready = false
			break
		}
	}
	status := "ready"
	code := fiber.StatusOK
	if !ready {
		status = "not_ready"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": results,
	})
}
