package buildenv

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
)

func TestLocalClient(t *testing.T) {
	c := NewLocalClient(zerolog.Nop())
	ctx := context.Background()

	h1, err := c.Provision(ctx, "Bakery Site", "")
	require.NoError(t, err)
	h2, err := c.Provision(ctx, "Other Site", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h1, "env-"))
	assert.NotEqual(t, h1, h2)

	assert.NoError(t, c.SaveState(ctx, h1))
}

func TestInitialMessages_WithoutSpec(t *testing.T) {
	msgs := InitialMessages(nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "asking them what kind of website")
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
}

func TestInitialMessages_WithSpec(t *testing.T) {
	spec := &idea.Specification{
		Purpose:        "Showcase a local bakery",
		TargetAudience: "Neighborhood customers",
		KeyFeatures:    []string{"menu", "opening hours"},
		DesignPreferences: idea.DesignPreferences{
			ColorScheme: "warm pastels",
			Style:       "rustic",
			Layout:      "single page",
		},
		ContentSections: []string{"hero", "menu"},
	}

	msgs := InitialMessages(spec)
	require.Len(t, msgs, 2)
	system := msgs[0].Content
	assert.Contains(t, system, "Purpose: Showcase a local bakery")
	assert.Contains(t, system, "- opening hours")
	assert.Contains(t, system, "- Color Scheme: warm pastels")
	assert.Contains(t, system, "- hero")
}
