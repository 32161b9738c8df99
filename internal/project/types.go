// Package project persists projects and their audit history and enforces the
// guided-workflow lifecycle: Idea → Build → Deploy.
package project

import (
	"encoding/json"

	"github.com/nofuss/sitecoach/internal/idea"
)

// Stage is a project's position in the guided workflow. It is always
// derived, never stored.
type Stage string

const (
	StageIdea   Stage = "idea"
	StageBuild  Stage = "build"
	StageDeploy Stage = "deploy"
)

// DeploymentStatus is the publishing sub-state attached to a project.
type DeploymentStatus string

const (
	StatusNotDeployed DeploymentStatus = "not_deployed"
	StatusDeploying   DeploymentStatus = "deploying"
	StatusDeployed    DeploymentStatus = "deployed"
	StatusFailed      DeploymentStatus = "failed"
)

// ValidStatus reports whether s is one of the four enumerated values.
func ValidStatus(s DeploymentStatus) bool {
	switch s {
	case StatusNotDeployed, StatusDeploying, StatusDeployed, StatusFailed:
		return true
	}
	return false
}

// History actions. The set is closed; metadata carries action-specific payload.
const (
	ActionChatMessage            = "chat_message"
	ActionGenerateSummary        = "generate_summary"
	ActionExportToBuild          = "export_to_build"
	ActionSaveBuildProgress      = "save_build_progress"
	ActionDeploymentStatusChange = "deployment_status_change"
	ActionDeployChatMessage      = "deploy_chat_message"
)

// transitionKey marks a save_build_progress event as the explicit
// Build → Deploy forward-transition record.
const transitionKey = "proceed_to"

// Project is a persisted guided-workflow project.
type Project struct {
	ID               string              `json:"id"`
	OwnerID          string              `json:"owner_id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	BuildHandle      string              `json:"build_handle"`
	Specification    *idea.Specification `json:"specification,omitempty"`
	DeploymentStatus DeploymentStatus    `json:"deployment_status"`
	DeploymentURL    string              `json:"deployment_url,omitempty"`
	CreatedAt        int64               `json:"created_at"`
	UpdatedAt        int64               `json:"updated_at"`
}

// HistoryEvent is an append-only audit record. Never mutated or deleted.
type HistoryEvent struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// UpdateInput holds the user-mutable project fields. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}
