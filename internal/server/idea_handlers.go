package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nofuss/sitecoach/internal/conversation"
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/project"
)

// historyWindow is how many trailing messages each chat append captures:
// the last user message and the assistant response.
const historyWindow = 2

// IdeaChat handles POST /api/v1/idea/chat. The client owns the transcript
// and sends it whole; the server is stateless between turns.
func (h *Handlers) IdeaChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.ProjectID == "" || len(req.Messages) == 0 {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"projectId and messages are required")
	}

	p, err := h.projects.Get(c.Context(), req.ProjectID, ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}

	if h.completer == nil {
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"completions_disabled", "Service Unavailable",
			"No model provider is configured")
	}

	log := conversation.FromMessages(req.Messages)
	response, err := h.completer.Complete(c.Context(), log.Messages())
	if err != nil {
		h.metrics.RecordCompletion("idea_chat", "error")
		return mapError(c, err)
	}
	h.metrics.RecordCompletion("idea_chat", "ok")

	action := project.ActionChatMessage
	if req.IsSummaryRequest {
		action = project.ActionGenerateSummary
	}
	window := req.Messages
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	h.projects.LogHistory(c.Context(), p.ID, action, fiber.Map{
		"messages": window,
	})

	if req.IsSummaryRequest {
		// The draft summary is advisory. A response that does not parse as
		// a complete specification leaves the project untouched; the user
		// keeps chatting and finalizes later.
		spec, perr := idea.Parse([]byte(idea.StripFences(response)))
		if perr != nil {
			h.logger.Warn().Err(perr).Str("project_id", p.ID).Msg("summary response did not parse (ignored)")
		} else if serr := h.projects.SetSpecification(c.Context(), p.ID, ownerFromCtx(c), spec); serr != nil {
			h.logger.Warn().Err(serr).Str("project_id", p.ID).Msg("summary specification store failed (ignored)")
		}
	}

	return c.JSON(ChatResponse{Response: response})
}

// FinalizeIdea handles POST /api/v1/idea/finalize/:projectId. This is the
// Idea → Build transition: it extracts a specification from the conversation
// and persists it whole.
func (h *Handlers) FinalizeIdea(c *fiber.Ctx) error {
	var req FinalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	log := conversation.FromMessages(req.Messages)
	spec, err := h.manager.FinalizeIdea(c.Context(), c.Params("projectId"), ownerFromCtx(c), log)
	if err != nil {
		h.metrics.RecordCompletion("finalize", "error")
		return mapError(c, err)
	}
	h.metrics.RecordCompletion("finalize", "ok")
	h.metrics.RecordStageTransition(string(project.StageBuild))

	p, err := h.projects.Get(c.Context(), c.Params("projectId"), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{
		"project":       p,
		"specification": spec,
	})
}

// ExportIdea handles GET /api/v1/idea/export/:projectId. Export requires a
// stored specification; a project still in conversation answers 400.
func (h *Handlers) ExportIdea(c *fiber.Ctx) error {
	p, err := h.projects.Get(c.Context(), c.Params("projectId"), ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	if p.Specification == nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"no_specification", "Bad Request",
			"Project has no specification to export")
	}

	h.projects.LogHistory(c.Context(), p.ID, project.ActionExportToBuild, nil)

	return c.JSON(ExportResponse{
		Summary: p.Specification,
		Project: ExportProject{
			ID:                  p.ID,
			Name:                p.Name,
			Description:         p.Description,
			ExternalBuildHandle: p.BuildHandle,
		},
	})
}

// SaveBuild handles POST /api/v1/build/save/:projectId.
func (h *Handlers) SaveBuild(c *fiber.Ctx) error {
	if err := h.manager.SaveProgress(c.Context(), c.Params("projectId"), ownerFromCtx(c)); err != nil {
		return mapError(c, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}

// ProceedToDeploy handles POST /api/v1/build/proceed/:projectId. This is the
// Build → Deploy transition.
func (h *Handlers) ProceedToDeploy(c *fiber.Ctx) error {
	if err := h.manager.ProceedToDeployment(c.Context(), c.Params("projectId"), ownerFromCtx(c)); err != nil {
		return mapError(c, err)
	}
	h.metrics.RecordStageTransition(string(project.StageDeploy))
	return c.JSON(SuccessResponse{Success: true})
}
