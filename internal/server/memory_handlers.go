package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nofuss/sitecoach/internal/memorybank"
)

// requireProject resolves the projectId query or body value into an
// ownership-checked project id. Memories and collections are always scoped
// through a project the caller owns. On failure the problem response has
// already been written and ok is false; callers must return immediately.
func (h *Handlers) requireProject(c *fiber.Ctx, projectID string) (string, bool) {
	if projectID == "" {
		problemResponse(c, fiber.StatusBadRequest,
			"missing_project_id", "Bad Request",
			"projectId is required")
		return "", false
	}
	p, err := h.projects.Get(c.Context(), projectID, ownerFromCtx(c))
	if err != nil {
		mapError(c, err)
		return "", false
	}
	return p.ID, true
}

// ListMemories handles GET /api/v1/memories. Filters combine conjunctively;
// the response is always a grouped view with pinned memories leading.
func (h *Handlers) ListMemories(c *fiber.Ctx) error {
	projectID, ok := h.requireProject(c, c.Query("projectId"))
	if !ok {
		return nil
	}

	memories, lerr := h.bank.List(c.Context(), memorybank.Filter{
		ProjectID: projectID,
		Type:      memorybank.MemoryType(c.Query("type")),
		Stage:     c.Query("stage"),
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
	})
	if lerr != nil {
		return mapError(c, lerr)
	}

	groupBy := memorybank.GroupBy(c.Query("view", string(memorybank.GroupByDate)))
	view := memorybank.BuildView(memories, groupBy)

	if memories == nil {
		memories = []*memorybank.Memory{}
	}
	return c.JSON(fiber.Map{
		"memories": memories,
		"view":     view,
	})
}

// PinMemory handles PATCH /api/v1/memories/:id/pin.
func (h *Handlers) PinMemory(c *fiber.Ctx) error {
	var req PinRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	projectID, ok := h.requireProject(c, req.ProjectID)
	if !ok {
		return nil
	}
	if err := h.bank.TogglePin(c.Context(), c.Params("id"), projectID, req.Pinned); err != nil {
		return mapError(c, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}

// DeleteMemory handles DELETE /api/v1/memories/:id. Only the memory goes;
// the history it was derived from stays.
func (h *Handlers) DeleteMemory(c *fiber.Ctx) error {
	projectID, ok := h.requireProject(c, c.Query("projectId"))
	if !ok {
		return nil
	}
	if err := h.bank.Delete(c.Context(), c.Params("id"), projectID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}

// ListCollections handles GET /api/v1/memory-collections.
func (h *Handlers) ListCollections(c *fiber.Ctx) error {
	projectID, ok := h.requireProject(c, c.Query("projectId"))
	if !ok {
		return nil
	}
	collections, lerr := h.bank.ListCollections(c.Context(), projectID)
	if lerr != nil {
		return mapError(c, lerr)
	}
	return c.JSON(collections)
}

// CreateCollection handles POST /api/v1/memory-collections.
func (h *Handlers) CreateCollection(c *fiber.Ctx) error {
	var req CreateCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	projectID, ok := h.requireProject(c, req.ProjectID)
	if !ok {
		return nil
	}
	collection, cerr := h.bank.CreateCollection(c.Context(), projectID, req.Name, req.Description)
	if cerr != nil {
		return mapError(c, cerr)
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// AddToCollection handles POST /api/v1/memory-collections/:id/items.
func (h *Handlers) AddToCollection(c *fiber.Ctx) error {
	var req AddToCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	projectID, ok := h.requireProject(c, req.ProjectID)
	if !ok {
		return nil
	}
	if err := h.bank.AddToCollection(c.Context(), c.Params("id"), req.MemoryID, projectID); err != nil {
		return mapError(c, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}
