package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sitecoach.db", cfg.DatabasePath)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.False(t, cfg.CompletionEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("COMPLETION_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.CompletionEnabled())
	assert.Equal(t, "30s", cfg.CompletionTimeout.String())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"jwt with secret", Config{AuthMode: "jwt", AuthJWTSecret: "s"}, false},
		{"jwt without secret", Config{AuthMode: "jwt"}, true},
		{"none", Config{AuthMode: "none"}, false},
		{"unknown mode", Config{AuthMode: "oauth"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
