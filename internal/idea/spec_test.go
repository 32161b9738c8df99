package idea

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nofuss/sitecoach/internal/errs"
)

func validSpec() *Specification {
	return &Specification{
		Purpose:        "Showcase a local bakery",
		TargetAudience: "Neighborhood customers",
		KeyFeatures:    []string{"menu", "opening hours", "contact form"},
		DesignPreferences: DesignPreferences{
			ColorScheme: "warm pastels",
			Style:       "rustic",
			Layout:      "single page",
		},
		ContentSections: []string{"hero", "menu", "about", "contact"},
	}
}

func TestValidate_Complete(t *testing.T) {
	assert.NoError(t, validSpec().Validate())
}

func TestValidate_RejectsPartial(t *testing.T) {
	mutations := map[string]func(*Specification){
		"purpose":      func(s *Specification) { s.Purpose = "" },
		"audience":     func(s *Specification) { s.TargetAudience = "" },
		"features":     func(s *Specification) { s.KeyFeatures = nil },
		"color_scheme": func(s *Specification) { s.DesignPreferences.ColorScheme = "" },
		"style":        func(s *Specification) { s.DesignPreferences.Style = "" },
		"layout":       func(s *Specification) { s.DesignPreferences.Layout = "" },
		"sections":     func(s *Specification) { s.ContentSections = []string{} },
		"empty feature": func(s *Specification) {
			s.KeyFeatures = []string{"menu", ""}
		},
		"empty section": func(s *Specification) {
			s.ContentSections = []string{"", "menu"}
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := validSpec()
			mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))
		})
	}
}

func TestParse_ValidJSON(t *testing.T) {
	raw := `{
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

	spec, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Showcase a local bakery", spec.Purpose)
	assert.Equal(t, "rustic", spec.DesignPreferences.Style)
	assert.Len(t, spec.KeyFeatures, 2)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("this is not JSON"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))

	_, err = Parse([]byte(`{"purpose": "x"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMalformedSpecification))
}
