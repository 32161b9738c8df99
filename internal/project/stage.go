package project

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/buildenv"
	"github.com/nofuss/sitecoach/internal/conversation"
	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/idea"
)

// MinUserTurns is the minimum-engagement gate for finalizing the idea stage.
const MinUserTurns = 3

// DeriveStage computes a project's stage from stored facts: specification
// presence plus recorded forward-transition events. Transitions are
// monotonic — once an event places the project in a later stage, data shape
// alone cannot move it back.
func DeriveStage(specPresent bool, events []*HistoryEvent) Stage {
	stage := StageIdea
	if specPresent {
		stage = StageBuild
	}
	for _, evt := range events {
		switch evt.Action {
		case ActionExportToBuild:
			if stage == StageIdea {
				stage = StageBuild
			}
		case ActionDeploymentStatusChange, ActionDeployChatMessage:
			return StageDeploy
		case ActionSaveBuildProgress:
			if isDeployTransition(evt) {
				return StageDeploy
			}
		}
	}
	return stage
}

func isDeployTransition(evt *HistoryEvent) bool {
	if len(evt.Metadata) == 0 {
		return false
	}
	var meta map[string]any
	if err := json.Unmarshal(evt.Metadata, &meta); err != nil {
		return false
	}
	return meta[transitionKey] == string(StageDeploy)
}

// PercentComplete maps a stage to the workflow progress shown to the user.
func PercentComplete(stage Stage) int {
	switch stage {
	case StageBuild:
		return 66
	case StageDeploy:
		return 100
	default:
		return 33
	}
}

// Extractor derives a specification from a conversation log.
type Extractor interface {
	Extract(ctx context.Context, log *conversation.Log) (*idea.Specification, error)
}

// Manager drives stage transitions. Each transition is triggered
// synchronously by an explicit user action; there is no background
// scheduler.
type Manager struct {
	store     *Store
	extractor Extractor
	buildEnv  buildenv.Client
	logger    zerolog.Logger
}

// NewManager wires the stage machine.
func NewManager(store *Store, extractor Extractor, env buildenv.Client, logger zerolog.Logger) *Manager {
	return &Manager{
		store:     store,
		extractor: extractor,
		buildEnv:  env,
		logger:    logger.With().Str("component", "project.manager").Logger(),
	}
}

// Stage loads a project and derives its current stage.
func (m *Manager) Stage(ctx context.Context, id, owner string) (Stage, error) {
	p, err := m.store.Get(ctx, id, owner)
	if err != nil {
		return "", err
	}
	events, err := m.store.ListHistory(ctx, p.ID)
	if err != nil {
		return "", err
	}
	return DeriveStage(p.Specification != nil, events), nil
}

// FinalizeIdea runs the Idea → Build transition: extract a specification
// from the conversation, store it whole, and record the export. On any
// failure prior state is left unchanged.
func (m *Manager) FinalizeIdea(ctx context.Context, id, owner string, log *conversation.Log) (*idea.Specification, error) {
	if _, err := m.store.Get(ctx, id, owner); err != nil {
		return nil, err
	}
	if turns := log.UserTurns(); turns < MinUserTurns {
		return nil, fmt.Errorf("%w: %d user turns, need %d", errs.ErrInsufficientConversation, turns, MinUserTurns)
	}

	spec, err := m.extractor.Extract(ctx, log)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetSpecification(ctx, id, owner, spec); err != nil {
		return nil, err
	}

	m.store.LogHistory(ctx, id, ActionExportToBuild, map[string]any{
		"user_turns": log.UserTurns(),
	})
	if m.store.recorder != nil {
		if err := m.store.recorder.RecordSpecification(ctx, id, spec); err != nil {
			m.logger.Warn().Err(err).Str("project_id", id).Msg("specification memory failed (ignored)")
		}
	}

	m.logger.Info().Str("project_id", id).Msg("idea finalized, project entered build stage")
	return spec, nil
}

// SaveProgress checkpoints the external build environment and records the
// save. The collaborator call is authoritative; the history append is not.
func (m *Manager) SaveProgress(ctx context.Context, id, owner string) error {
	p, err := m.store.Get(ctx, id, owner)
	if err != nil {
		return err
	}
	if err := m.buildEnv.SaveState(ctx, p.BuildHandle); err != nil {
		return fmt.Errorf("save build state: %w", err)
	}
	if err := m.store.Touch(ctx, id, owner); err != nil {
		return err
	}
	m.store.LogHistory(ctx, id, ActionSaveBuildProgress, nil)
	return nil
}

// ProceedToDeployment runs the Build → Deploy transition. Progress is saved
// first; if that fails the stage stays Build and the error surfaces. The
// transition marker append is the transition itself, so its failure is also
// surfaced — unlike ordinary audit appends.
func (m *Manager) ProceedToDeployment(ctx context.Context, id, owner string) error {
	if err := m.SaveProgress(ctx, id, owner); err != nil {
		return err
	}
	if _, err := m.store.AppendHistory(ctx, id, ActionSaveBuildProgress, map[string]any{
		transitionKey: string(StageDeploy),
	}); err != nil {
		return fmt.Errorf("record deploy transition: %w", err)
	}
	m.logger.Info().Str("project_id", id).Msg("project entered deploy stage")
	return nil
}
