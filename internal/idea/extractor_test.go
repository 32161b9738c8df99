package idea

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nofuss/sitecoach/internal/conversation"
	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/llm"
)

const specJSON = `{
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

func seededLog() *conversation.Log {
	log := conversation.New()
	log.Append(llm.Message{Role: llm.RoleUser, Content: "I want a bakery site"})
	log.Append(llm.Message{Role: llm.RoleAssistant, Content: "Tell me more"})
	log.Append(llm.Message{Role: llm.RoleUser, Content: "Warm colors, single page"})
	return log
}

func TestExtract_ParsesResponse(t *testing.T) {
	stub := &llm.StubCompleter{Responses: []string{specJSON}}
	ex := NewExtractor(stub, zerolog.Nop())

	spec, err := ex.Extract(context.Background(), seededLog())
	require.NoError(t, err)
	assert.Equal(t, "Showcase a local bakery", spec.Purpose)

	// The extraction prompt is appended as a final user message.
	require.Len(t, stub.Calls, 1)
	sent := stub.Calls[0]
	assert.Equal(t, llm.RoleUser, sent[len(sent)-1].Role)
	assert.Equal(t, ExtractionPrompt, sent[len(sent)-1].Content)
}

func TestExtract_StripsCodeFences(t *testing.T) {
	stub := &llm.StubCompleter{Responses: []string{"```json\n" + specJSON + "\n```"}}
	ex := NewExtractor(stub, zerolog.Nop())

	spec, err := ex.Extract(context.Background(), seededLog())
	require.NoError(t, err)
	assert.Equal(t, "rustic", spec.DesignPreferences.Style)
}

func TestExtract_MalformedResponse(t *testing.T) {
	stub := &llm.StubCompleter{Responses: []string{"Sure! Here is a summary of your website idea..."}}
	ex := NewExtractor(stub, zerolog.Nop())

	_, err := ex.Extract(context.Background(), seededLog())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))
}

func TestExtract_CompleterError(t *testing.T) {
	stub := &llm.StubCompleter{Err: errs.ErrUnavailable}
	ex := NewExtractor(stub, zerolog.Nop())

	_, err := ex.Extract(context.Background(), seededLog())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestExtract_NoCompleter(t *testing.T) {
	ex := NewExtractor(nil, zerolog.Nop())

	_, err := ex.Extract(context.Background(), seededLog())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`  {"a":1}  `))
}
