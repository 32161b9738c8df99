package project

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nofuss/sitecoach/internal/buildenv"
	"github.com/nofuss/sitecoach/internal/conversation"
	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
)

const extractionJSON = `{
	"purpose": "Showcase a local bakery",
	"target_audience": "Neighborhood customers",
	"key_features": ["menu", "hours"],
	"design_preferences": {
		"color_scheme": "warm pastels",
		"style": "rustic",
		"layout": "single page"
	},
	"content_sections": ["hero", "menu"]
}`

func newTestManager(t *testing.T, responses ...string) (*Manager, *Store, *buildenv.FakeClient) {
	t.Helper()
	s := newTestStore(t)
	env := &buildenv.FakeClient{}
	stub := &llm.StubCompleter{Responses: responses}
	m := NewManager(s, idea.NewExtractor(stub, zerolog.Nop()), env, zerolog.Nop())
	return m, s, env
}

func conversationWithTurns(n int) *conversation.Log {
	log := conversation.New()
	for i := 0; i < n; i++ {
		log.Append(llm.Message{Role: llm.RoleUser, Content: "more detail"})
		log.Append(llm.Message{Role: llm.RoleAssistant, Content: "noted"})
	}
	return log
}

func TestDeriveStage(t *testing.T) {
	deployMeta, _ := json.Marshal(map[string]string{"proceed_to": "deploy"})

	cases := []struct {
		name        string
		specPresent bool
		events      []*HistoryEvent
		want        Stage
	}{
		{"fresh project", false, nil, StageIdea},
		{"spec present", true, nil, StageBuild},
		{"export event", false, []*HistoryEvent{{Action: ActionExportToBuild}}, StageBuild},
		{"plain save stays build", true, []*HistoryEvent{{Action: ActionSaveBuildProgress}}, StageBuild},
		{"deploy transition marker", true, []*HistoryEvent{
			{Action: ActionSaveBuildProgress, Metadata: deployMeta},
		}, StageDeploy},
		{"status change implies deploy", true, []*HistoryEvent{
			{Action: ActionDeploymentStatusChange},
		}, StageDeploy},
		{"deploy chat implies deploy", true, []*HistoryEvent{
			{Action: ActionDeployChatMessage},
		}, StageDeploy},
		// Monotonic: later chat events cannot move the project back.
		{"deploy is sticky", true, []*HistoryEvent{
			{Action: ActionSaveBuildProgress, Metadata: deployMeta},
			{Action: ActionChatMessage},
			{Action: ActionSaveBuildProgress},
		}, StageDeploy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStage(tc.specPresent, tc.events))
		})
	}
}

func TestPercentComplete(t *testing.T) {
	assert.Equal(t, 33, PercentComplete(StageIdea))
	assert.Equal(t, 66, PercentComplete(StageBuild))
	assert.Equal(t, 100, PercentComplete(StageDeploy))
}

func TestFinalizeIdea_FullFlow(t *testing.T) {
	m, s, _ := newTestManager(t, extractionJSON)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	stage, err := m.Stage(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageIdea, stage)

	spec, err := m.FinalizeIdea(ctx, p.ID, "alice", conversationWithTurns(3))
	require.NoError(t, err)
	assert.Equal(t, "Showcase a local bakery", spec.Purpose)

	// Specification is stored and the stage is now build.
	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Specification)

	stage, err = m.Stage(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageBuild, stage)

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionExportToBuild, events[0].Action)
}

func TestFinalizeIdea_RequiresMinimumTurns(t *testing.T) {
	m, s, _ := newTestManager(t, extractionJSON)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	_, err = m.FinalizeIdea(ctx, p.ID, "alice", conversationWithTurns(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInsufficientConversation))

	// Nothing changed.
	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Specification)
}

func TestFinalizeIdea_MalformedExtractionLeavesStateUnchanged(t *testing.T) {
	m, s, _ := newTestManager(t, "not json at all")
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	_, err = m.FinalizeIdea(ctx, p.ID, "alice", conversationWithTurns(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))

	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Specification)

	stage, err := m.Stage(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageIdea, stage)
}

func TestFinalizeIdea_OwnershipMiss(t *testing.T) {
	m, s, _ := newTestManager(t, extractionJSON)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	_, err = m.FinalizeIdea(ctx, p.ID, "mallory", conversationWithTurns(3))
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSaveProgress_ChecksPointsEnvironment(t *testing.T) {
	m, s, env := newTestManager(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	require.NoError(t, m.SaveProgress(ctx, p.ID, "alice"))
	assert.Equal(t, []string{"env-1"}, env.Saved)

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionSaveBuildProgress, events[0].Action)
}

func TestSaveProgress_EnvironmentFailureSurfaces(t *testing.T) {
	m, s, env := newTestManager(t)
	env.SaveErr = errors.New("checkpoint failed")
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	err = m.SaveProgress(ctx, p.ID, "alice")
	require.Error(t, err)

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestProceedToDeployment(t *testing.T) {
	m, s, env := newTestManager(t, extractionJSON)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)
	_, err = m.FinalizeIdea(ctx, p.ID, "alice", conversationWithTurns(3))
	require.NoError(t, err)

	require.NoError(t, m.ProceedToDeployment(ctx, p.ID, "alice"))
	assert.Equal(t, []string{"env-1"}, env.Saved)

	stage, err := m.Stage(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageDeploy, stage)
}

func TestProceedToDeployment_SaveFailureKeepsBuildStage(t *testing.T) {
	m, s, env := newTestManager(t, extractionJSON)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)
	_, err = m.FinalizeIdea(ctx, p.ID, "alice", conversationWithTurns(3))
	require.NoError(t, err)

	env.SaveErr = errors.New("checkpoint failed")
	err = m.ProceedToDeployment(ctx, p.ID, "alice")
	require.Error(t, err)

	stage, err := m.Stage(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageBuild, stage)
}
