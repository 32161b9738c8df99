// Package buildenv wraps the external build-environment service. The
// environment itself is opaque: we hold a handle, seed its chat, and ask it
// to checkpoint state.
package buildenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
)

// Client is the external build-environment collaborator.
type Client interface {
	// Provision creates a build environment for a new project and returns
	// its opaque handle. Called once per project; the handle is immutable
	// afterwards.
	Provision(ctx context.Context, name, description string) (string, error)

	// SaveState checkpoints the environment identified by handle.
	SaveState(ctx context.Context, handle string) error
}

// LocalClient is the default Client. The upstream build service has no
// provisioning API yet, so handles are allocated locally and saves always
// succeed.
type LocalClient struct {
	logger zerolog.Logger
}

// NewLocalClient creates a LocalClient.
func NewLocalClient(logger zerolog.Logger) *LocalClient {
	return &LocalClient{logger: logger.With().Str("component", "buildenv").Logger()}
}

// Provision allocates a fresh environment handle.
func (c *LocalClient) Provision(_ context.Context, name, _ string) (string, error) {
	handle := "env-" + uuid.New().String()
	c.logger.Info().Str("handle", handle).Str("project", name).Msg("build environment provisioned")
	return handle, nil
}

// SaveState checkpoints the environment.
func (c *LocalClient) SaveState(_ context.Context, handle string) error {
	c.logger.Debug().Str("handle", handle).Msg("build environment state saved")
	return nil
}

// FakeClient is a test double with injectable failures.
type FakeClient struct {
	ProvisionErr error
	SaveErr      error
	Provisioned  []string
	Saved        []string
}

func (f *FakeClient) Provision(_ context.Context, name, _ string) (string, error) {
	if f.ProvisionErr != nil {
		return "", f.ProvisionErr
	}
	handle := fmt.Sprintf("env-fake-%d", len(f.Provisioned)+1)
	f.Provisioned = append(f.Provisioned, name)
	return handle, nil
}

func (f *FakeClient) SaveState(_ context.Context, handle string) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Saved = append(f.Saved, handle)
	return nil
}

// InitialMessages seeds the build-environment chat from a finalized
// specification. With no specification it falls back to an open prompt.
func InitialMessages(spec *idea.Specification) []llm.Message {
	if spec == nil {
		return []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a build assistant with access to a code editor and preview environment. You can create, modify, and delete files.\n\nYour task is to help the user build a website. Start by asking them what kind of website they want to build."},
			{Role: llm.RoleAssistant, Content: "Hi there! What kind of website would you like to create today? For example:\n\n1. A personal portfolio\n2. A business landing page\n3. A blog\n4. An e-commerce store\n5. Something else entirely\n\nLet me know what you have in mind, and we can get started right away!"},
		}
	}

	var b strings.Builder
	b.WriteString("You are a build assistant with access to a code editor and preview environment. You can create, modify, and delete files.\n\n")
	b.WriteString("The user wants to build a website with the following specifications:\n\n")
	fmt.Fprintf(&b, "Purpose: %s\n\n", spec.Purpose)
	fmt.Fprintf(&b, "Target Audience: %s\n\n", spec.TargetAudience)
	b.WriteString("Key Features:\n")
	for _, f := range spec.KeyFeatures {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nDesign Preferences:\n")
	fmt.Fprintf(&b, "- Color Scheme: %s\n", spec.DesignPreferences.ColorScheme)
	fmt.Fprintf(&b, "- Style: %s\n", spec.DesignPreferences.Style)
	fmt.Fprintf(&b, "- Layout: %s\n", spec.DesignPreferences.Layout)
	b.WriteString("\nContent Sections:\n")
	for _, s := range spec.ContentSections {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\nYour task is to help the user build this website. Start by suggesting a project structure and initial files.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.String()},
		{Role: llm.RoleAssistant, Content: "I'll help you build a website based on your requirements. Let's start by creating a project structure that will work well for your needs.\n\nI recommend a simple but effective structure using HTML, CSS, and JavaScript:\n\n1. index.html - Main entry point for your website\n2. styles.css - For styling according to your design preferences\n3. script.js - For any interactive elements\n\nWould you like me to create these files now with some initial content based on your requirements?"},
	}
}
