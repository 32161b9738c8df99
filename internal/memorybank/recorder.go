package memorybank

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
	"github.com/nofuss/sitecoach/internal/project"
)

// Recorder turns audit history into memories. It satisfies
// project.MemoryRecorder; the store invokes it best-effort after each
// history append.
type Recorder struct {
	bank *Bank
}

// NewRecorder creates a Recorder over the bank.
func NewRecorder(bank *Bank) *Recorder {
	return &Recorder{bank: bank}
}

type eventMetadata struct {
	Messages  []llm.Message `json:"messages,omitempty"`
	Message   string        `json:"message,omitempty"`
	Status    string        `json:"status,omitempty"`
	DeployURL string        `json:"deployment_url,omitempty"`
	ProceedTo string        `json:"proceed_to,omitempty"`
}

// RecordEvent derives and stores a memory from a history event.
func (r *Recorder) RecordEvent(ctx context.Context, evt *project.HistoryEvent) error {
	var meta eventMetadata
	if len(evt.Metadata) > 0 {
		// Unknown metadata shapes fall through to zero values.
		_ = json.Unmarshal(evt.Metadata, &meta)
	}

	m := &Memory{
		ProjectID: evt.ProjectID,
		CreatedAt: evt.CreatedAt,
	}

	switch evt.Action {
	case project.ActionChatMessage:
		m.Title = "Idea chat"
		m.Type = TypeIdea
		m.Stage = string(project.StageIdea)
		m.Tags = []string{"chat", "idea"}
		m.Content = ChatContent(meta.Messages)

	case project.ActionGenerateSummary:
		m.Title = "Specification drafted"
		m.Type = TypeIdea
		m.Stage = string(project.StageIdea)
		m.Tags = []string{"chat", "summary"}
		m.Content = ChatContent(meta.Messages)

	case project.ActionExportToBuild:
		m.Title = "Exported to build"
		m.Type = TypeProjectEvolution
		m.Stage = string(project.StageBuild)
		m.Tags = []string{"milestone"}
		m.Content = TextContent("Idea specification exported to the build environment.")

	case project.ActionSaveBuildProgress:
		if meta.ProceedTo == string(project.StageDeploy) {
			m.Title = "Proceeded to deployment"
			m.Type = TypeProjectEvolution
			m.Stage = string(project.StageDeploy)
			m.Tags = []string{"milestone"}
			m.Content = TextContent("Build progress saved and project moved to the deploy stage.")
		} else {
			m.Title = "Build progress saved"
			m.Type = TypeBuild
			m.Stage = string(project.StageBuild)
			m.Tags = []string{"build"}
			m.Content = TextContent("Build environment state checkpointed.")
		}

	case project.ActionDeploymentStatusChange:
		m.Title = "Deployment status: " + meta.Status
		m.Type = TypeDeploy
		m.Stage = string(project.StageDeploy)
		m.Tags = []string{"deployment"}
		text := "Deployment status changed to " + meta.Status + "."
		if meta.DeployURL != "" {
			text += " Live at " + meta.DeployURL
		}
		m.Content = TextContent(text)

	case project.ActionDeployChatMessage:
		m.Title = "Deploy chat"
		m.Type = TypeDeploy
		m.Stage = string(project.StageDeploy)
		m.Tags = []string{"chat", "deploy"}
		m.Content = TextContent(meta.Message)

	default:
		return fmt.Errorf("unknown history action %q", evt.Action)
	}

	return r.bank.Save(ctx, m)
}

// RecordSpecification snapshots a finalized specification as two memories:
// the specification itself and a user-preference record of the design
// choices it captured.
func (r *Recorder) RecordSpecification(ctx context.Context, projectID string, spec *idea.Specification) error {
	if err := r.bank.Save(ctx, &Memory{
		ProjectID: projectID,
		Title:     "Website specification",
		Type:      TypeIdea,
		Stage:     string(project.StageIdea),
		Tags:      []string{"specification"},
		Content:   SpecContent(spec),
	}); err != nil {
		return err
	}

	prefs := spec.DesignPreferences
	return r.bank.Save(ctx, &Memory{
		ProjectID: projectID,
		Title:     "Design preferences",
		Type:      TypeUserPreference,
		Stage:     string(project.StageIdea),
		Tags:      []string{"design", "preferences"},
		Content: TextContent(fmt.Sprintf("Color scheme: %s. Style: %s. Layout: %s.",
			prefs.ColorScheme, prefs.Style, prefs.Layout)),
	})
}
