package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ds, err := store.New(dbPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return NewStore(ds, zerolog.Nop())
}

func testSpec() *idea.Specification {
	return &idea.Specification{
		Purpose:        "Showcase a local bakery",
		TargetAudience: "Neighborhood customers",
		KeyFeatures:    []string{"menu", "hours"},
		DesignPreferences: idea.DesignPreferences{
			ColorScheme: "warm pastels",
			Style:       "rustic",
			Layout:      "single page",
		},
		ContentSections: []string{"hero", "menu"},
	}
}

func TestCreate_And_Get(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "a site for my bakery", "env-1")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusNotDeployed, p.DeploymentStatus)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Bakery Site", got.Name)
	assert.Equal(t, "env-1", got.BuildHandle)
	assert.Nil(t, got.Specification)
}

func TestCreate_RequiresNameAndHandle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "", "d", "env-1")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	_, err = s.Create(ctx, "alice", "Site", "d", "")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestGet_OwnershipMissIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	// Another owner sees the same error as a missing row.
	_, err = s.Get(ctx, p.ID, "mallory")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = s.Get(ctx, "no-such-id", "alice")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestList_OwnerScopedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "First", "", "env-1")
	require.NoError(t, err)
	_, err = s.Create(ctx, "alice", "Second", "", "env-2")
	require.NoError(t, err)
	_, err = s.Create(ctx, "bob", "Other", "", "env-3")
	require.NoError(t, err)

	projects, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	for _, p := range projects {
		assert.Equal(t, "alice", p.OwnerID)
	}

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdate_Partial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "old description", "env-1")
	require.NoError(t, err)

	newName := "Bakery & Cafe"
	updated, err := s.Update(ctx, p.ID, "alice", UpdateInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Bakery & Cafe", updated.Name)
	assert.Equal(t, "old description", updated.Description)

	empty := ""
	_, err = s.Update(ctx, p.ID, "alice", UpdateInput{Name: &empty})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	_, err = s.Update(ctx, p.ID, "mallory", UpdateInput{Name: &newName})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSetSpecification_WholeReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	require.NoError(t, s.SetSpecification(ctx, p.ID, "alice", testSpec()))

	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Specification)
	assert.Equal(t, "Showcase a local bakery", got.Specification.Purpose)

	// A second extraction replaces the first wholesale.
	second := testSpec()
	second.Purpose = "Sell cakes online"
	require.NoError(t, s.SetSpecification(ctx, p.ID, "alice", second))

	got, err = s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Sell cakes online", got.Specification.Purpose)
}

func TestSetSpecification_RejectsPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	bad := testSpec()
	bad.Purpose = ""
	err = s.SetSpecification(ctx, p.ID, "alice", bad)
	assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))

	// Nothing was stored.
	got, err := s.Get(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Specification)
}

func TestHistory_AppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	_, err = s.AppendHistory(ctx, p.ID, ActionChatMessage, map[string]any{"messages": []string{"hi"}})
	require.NoError(t, err)
	_, err = s.AppendHistory(ctx, p.ID, ActionExportToBuild, nil)
	require.NoError(t, err)

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionChatMessage, events[0].Action)
	assert.Equal(t, ActionExportToBuild, events[1].Action)
	assert.NotEmpty(t, events[0].Metadata)
	assert.Empty(t, events[1].Metadata)
}

func TestHistory_AppendOrderSurvivesTimestampCollisions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	// Back-to-back appends land within the same millisecond; read order
	// must still be append order.
	actions := []string{
		ActionChatMessage, ActionGenerateSummary, ActionExportToBuild,
		ActionSaveBuildProgress, ActionDeploymentStatusChange, ActionDeployChatMessage,
	}
	var want []string
	for i := 0; i < 5; i++ {
		for _, a := range actions {
			_, err := s.AppendHistory(ctx, p.ID, a, nil)
			require.NoError(t, err)
			want = append(want, a)
		}
	}

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, len(want))
	for i, e := range events {
		assert.Equal(t, want[i], e.Action, "position %d", i)
	}
}

type countingFailures struct{ n int }

func (c *countingFailures) Inc() { c.n++ }

func TestLogHistory_FailureIncrementsCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	counter := &countingFailures{}
	s.SetHistoryFailureCounter(counter)

	// Unmarshalable metadata fails the append before it reaches the insert.
	s.LogHistory(ctx, "some-project", ActionChatMessage, make(chan int))
	assert.Equal(t, 1, counter.n)

	// A successful append leaves the counter alone.
	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)
	s.LogHistory(ctx, p.ID, ActionChatMessage, nil)
	assert.Equal(t, 1, counter.n)

	events, err := s.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) RecordEvent(context.Context, *HistoryEvent) error {
	f.calls++
	return errors.New("boom")
}

func (f *failingRecorder) RecordSpecification(context.Context, string, *idea.Specification) error {
	return errors.New("boom")
}

func TestAppendHistory_RecorderFailureIsSwallowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &failingRecorder{}
	s.SetRecorder(rec)

	p, err := s.Create(ctx, "alice", "Bakery Site", "", "env-1")
	require.NoError(t, err)

	_, err = s.AppendHistory(ctx, p.ID, ActionChatMessage, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}
