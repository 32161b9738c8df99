package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nofuss/sitecoach/internal/llm"
	"github.com/nofuss/sitecoach/internal/project"
)

// SetDeploymentStatus handles POST /api/v1/deploy/status.
func (h *Handlers) SetDeploymentStatus(c *fiber.Ctx) error {
	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.ProjectID == "" || req.Status == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"projectId and status are required")
	}

	owner := ownerFromCtx(c)
	err := h.projects.SetStatus(c.Context(), req.ProjectID, owner,
		project.DeploymentStatus(req.Status), req.DeploymentURL)
	if err != nil {
		return mapError(c, err)
	}

	status, url, err := h.projects.GetStatus(c.Context(), req.ProjectID, owner)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(StatusResponse{
		Success:       true,
		Status:        string(status),
		DeploymentURL: url,
	})
}

// GetDeploymentStatus handles GET /api/v1/deploy/status.
func (h *Handlers) GetDeploymentStatus(c *fiber.Ctx) error {
	projectID := c.Query("projectId")
	if projectID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_project_id", "Bad Request",
			"projectId query parameter is required")
	}
	status, url, err := h.projects.GetStatus(c.Context(), projectID, ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(StatusResponse{
		Success:       true,
		Status:        string(status),
		DeploymentURL: url,
	})
}

// DeployOptions handles GET /api/v1/deploy/options.
func (h *Handlers) DeployOptions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"options": h.catalogue.Options()})
}

// DeployInstructions handles GET /api/v1/deploy/instructions/:platform.
// The walkthrough is personalized with the project name, so the project
// must exist and belong to the caller.
func (h *Handlers) DeployInstructions(c *fiber.Ctx) error {
	projectID := c.Query("projectId")
	if projectID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_project_id", "Bad Request",
			"projectId query parameter is required")
	}
	p, err := h.projects.Get(c.Context(), projectID, ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}

	ins, err := h.catalogue.InstructionsFor(c.Params("platform"), p.Name)
	if err != nil {
		// Unknown platform is a client mistake, not a missing resource.
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_platform", "Bad Request",
			"Unknown deployment platform: "+c.Params("platform"))
	}
	return c.JSON(fiber.Map{"instructions": ins})
}

// deployChatTruncate caps what the audit trail keeps of a deploy question.
const deployChatTruncate = 100

// DeployChat handles POST /api/v1/deploy/chat. Replies are canned
// walkthroughs routed by keyword, no model call involved.
func (h *Handlers) DeployChat(c *fiber.Ctx) error {
	var req DeployChatRequest
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

	var lastUser *llm.Message
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			lastUser = &req.Messages[i]
			break
		}
	}
	if lastUser == nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"no_user_message", "Bad Request",
			"No user message found")
	}

	p, err := h.projects.Get(c.Context(), req.ProjectID, ownerFromCtx(c))
	if err != nil {
		return mapError(c, err)
	}

	logged := lastUser.Content
	if len(logged) > deployChatTruncate {
		logged = logged[:deployChatTruncate] + "..."
	}
	h.projects.LogHistory(c.Context(), p.ID, project.ActionDeployChatMessage, fiber.Map{
		"message": logged,
	})

	return c.JSON(DeployChatResponse{
		Role:    llm.RoleAssistant,
		Content: h.catalogue.HelperReply(lastUser.Content, p.Name),
	})
}
