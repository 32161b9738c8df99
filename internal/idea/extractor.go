package idea

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/conversation"
	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/llm"
)

// ExtractionPrompt is the synthetic user message that asks the completion
// service to emit the specification as bare JSON.
const ExtractionPrompt = `Based on our conversation, please create a structured summary of the website requirements in the following JSON format:
{
  "purpose": "Brief description of the website's purpose",
  "target_audience": "Description of the target audience",
  "key_features": ["Feature 1", "Feature 2", "Feature 3"],
  "design_preferences": {
    "color_scheme": "Description of color preferences",
    "style": "Description of style (e.g., modern, classic, minimalist)",
    "layout": "Description of layout preferences"
  },
  "content_sections": ["Section 1", "Section 2", "Section 3"]
}
Please provide ONLY the JSON with no additional text.`

// Extractor derives a Specification from a conversation log with a single
// completion call. Re-running is idempotent: each call re-derives a fresh
// specification from the same log.
type Extractor struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewExtractor creates an Extractor backed by the given completion service.
func NewExtractor(completer llm.Completer, logger zerolog.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    logger.With().Str("component", "idea.extractor").Logger(),
	}
}

// Extract asks the completion service for the structured summary and
// validates the result. It never returns a partially populated
// specification: the result is complete or the error is
// errs.ErrMalformedSpecification. An unreachable completion service
// surfaces as errs.ErrUnavailable. No retries are attempted here.
func (e *Extractor) Extract(ctx context.Context, log *conversation.Log) (*Specification, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("%w: no completion service configured", errs.ErrUnavailable)
	}
	messages := append(log.Messages(), llm.Message{
		Role:    llm.RoleUser,
		Content: ExtractionPrompt,
	})

	raw, err := e.completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	spec, err := Parse([]byte(StripFences(raw)))
	if err != nil {
		e.logger.Warn().Err(err).Int("response_len", len(raw)).Msg("extraction response rejected")
		return nil, err
	}
	return spec, nil
}

// StripFences removes surrounding Markdown code-fence markup from a raw
// completion response, tolerating a "json" language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// Completer exposes the underlying service, for callers that run plain chat
// turns through the same dependency.
func (e *Extractor) Completer() llm.Completer { return e.completer }
