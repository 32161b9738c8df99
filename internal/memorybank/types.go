// Package memorybank materializes a browsable memory record from the audit
// history. Memories are a view/annotation layer: pinning and deletion touch
// only this layer, never the underlying history.
package memorybank

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
)

// MemoryType classifies what a memory captures.
type MemoryType string

const (
	TypeIdea             MemoryType = "idea"
	TypeBuild            MemoryType = "build"
	TypeDeploy           MemoryType = "deploy"
	TypeUserPreference   MemoryType = "user_preference"
	TypeProjectEvolution MemoryType = "project_evolution"
)

// ContentKind tags the content union.
type ContentKind string

const (
	ContentText ContentKind = "text"
	ContentChat ContentKind = "chat"
	ContentSpec ContentKind = "specification"
)

// Content is a tagged union over the three memory payload shapes: plain
// text, a chat window, or a specification snapshot. Exactly one payload
// field is set, selected by Kind.
type Content struct {
	Kind ContentKind
	Text string
	Chat []llm.Message
	Spec *idea.Specification
}

// TextContent wraps a plain string.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ChatContent wraps a message window.
func ChatContent(msgs []llm.Message) Content {
	return Content{Kind: ContentChat, Chat: msgs}
}

// SpecContent wraps a specification snapshot.
func SpecContent(spec *idea.Specification) Content {
	return Content{Kind: ContentSpec, Spec: spec}
}

type contentEnvelope struct {
	Kind     ContentKind         `json:"kind"`
	Text     string              `json:"text,omitempty"`
	Messages []llm.Message       `json:"messages,omitempty"`
	Spec     *idea.Specification `json:"specification,omitempty"`
}

// MarshalJSON encodes the union with an explicit kind tag.
func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentEnvelope{
		Kind:     c.Kind,
		Text:     c.Text,
		Messages: c.Chat,
		Spec:     c.Spec,
	})
}

// UnmarshalJSON decodes the union, dispatching on the kind tag.
func (c *Content) UnmarshalJSON(data []byte) error {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case ContentText, ContentChat, ContentSpec:
	default:
		return fmt.Errorf("unknown memory content kind %q", env.Kind)
	}
	c.Kind = env.Kind
	c.Text = env.Text
	c.Chat = env.Messages
	c.Spec = env.Spec
	return nil
}

// Render projects any content shape to plain text, for search and compact
// display. This is the single dispatch point over the union.
func (c Content) Render() string {
	switch c.Kind {
	case ContentChat:
		parts := make([]string, 0, len(c.Chat))
		for _, m := range c.Chat {
			parts = append(parts, m.Role+": "+m.Content)
		}
		return strings.Join(parts, "\n")
	case ContentSpec:
		if c.Spec == nil {
			return ""
		}
		return strings.Join([]string{
			"Purpose: " + c.Spec.Purpose,
			"Target Audience: " + c.Spec.TargetAudience,
			"Key Features: " + strings.Join(c.Spec.KeyFeatures, ", "),
			"Design: " + c.Spec.DesignPreferences.ColorScheme + ", " + c.Spec.DesignPreferences.Style + ", " + c.Spec.DesignPreferences.Layout,
			"Content Sections: " + strings.Join(c.Spec.ContentSections, ", "),
		}, "\n")
	default:
		return c.Text
	}
}

// Memory is a typed, taggable, pinnable record derived from history.
type Memory struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Title     string     `json:"title"`
	Content   Content    `json:"content"`
	Type      MemoryType `json:"memory_type"`
	Stage     string     `json:"stage"`
	Tags      []string   `json:"tags"`
	IsPinned  bool       `json:"is_pinned"`
	CreatedAt int64      `json:"created_at"`
}

// HasTag reports whether the memory carries the tag (exact match).
func (m *Memory) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Collection is a named grouping of memory ids. Purely organizational.
type Collection struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemoryIDs   []string `json:"memory_ids"`
	CreatedAt   int64    `json:"created_at"`
}

// Filter narrows a memory listing. ProjectID is required; the optional
// fields combine conjunctively.
type Filter struct {
	ProjectID string
	Type      MemoryType
	Stage     string
	Tag       string
	Search    string
}

// ToggleTag applies the single-active-tag rule: clicking the active tag
// clears the filter, clicking any other tag replaces it.
func ToggleTag(active, clicked string) string {
	if active == clicked {
		return ""
	}
	return clicked
}
