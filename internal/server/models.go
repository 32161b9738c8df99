// Package server provides the HTTP API for the guided website workflow.
package server

import (
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
)

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// --- Project DTOs ---

// CreateProjectRequest is the payload for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest is the payload for PUT /api/v1/projects/:id.
// Omitted fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// StageResponse reports a project's derived workflow position.
type StageResponse struct {
	Stage           string `json:"stage"`
	PercentComplete int    `json:"percent_complete"`
}

// --- Idea DTOs ---

// ChatRequest is the payload for POST /api/v1/idea/chat.
type ChatRequest struct {
	ProjectID        string        `json:"projectId"`
	Messages         []llm.Message `json:"messages"`
	IsSummaryRequest bool          `json:"isSummaryRequest"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// FinalizeRequest is the payload for POST /api/v1/idea/finalize/:projectId.
type FinalizeRequest struct {
	Messages []llm.Message `json:"messages"`
}

// ExportProject is the project envelope in an export response.
type ExportProject struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	ExternalBuildHandle string `json:"externalBuildHandle"`
}

// ExportResponse is the body of GET /api/v1/idea/export/:projectId.
type ExportResponse struct {
	Summary *idea.Specification `json:"summary"`
	Project ExportProject       `json:"project"`
}

// --- Deploy DTOs ---

// SetStatusRequest is the payload for POST /api/v1/deploy/status.
type SetStatusRequest struct {
	ProjectID     string `json:"projectId"`
	Status        string `json:"status"`
	DeploymentURL string `json:"deploymentUrl"`
}

// StatusResponse reports the deployment status machine's current state.
type StatusResponse struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	DeploymentURL string `json:"deploymentUrl,omitempty"`
}

// DeployChatRequest is the payload for POST /api/v1/deploy/chat.
type DeployChatRequest struct {
	ProjectID string        `json:"projectId"`
	Messages  []llm.Message `json:"messages"`
}

// DeployChatResponse is the deploy helper's canned reply.
type DeployChatResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Memory DTOs ---

// CreateCollectionRequest is the payload for POST /api/v1/memory-collections.
type CreateCollectionRequest struct {
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddToCollectionRequest is the payload for
// POST /api/v1/memory-collections/:id/items.
type AddToCollectionRequest struct {
	ProjectID string `json:"projectId"`
	MemoryID  string `json:"memoryId"`
}

// PinRequest is the payload for PATCH /api/v1/memories/:id/pin.
type PinRequest struct {
	ProjectID string `json:"projectId"`
	Pinned    bool   `json:"pinned"`
}

// SuccessResponse acknowledges a mutation with no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}
