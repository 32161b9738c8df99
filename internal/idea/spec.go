// Package idea turns a free-form clarification conversation into a
// structured website specification.
package idea

import (
	"encoding/json"
	"fmt"

	"github.com/nofuss/sitecoach/internal/errs"
)

// DesignPreferences captures the look-and-feel portion of a specification.
type DesignPreferences struct {
	ColorScheme string `json:"color_scheme"`
	Style       string `json:"style"`
	Layout      string `json:"layout"`
}

// Specification is the structured output of the idea-clarification stage.
// It is immutable once stored: a new extraction fully replaces the old one.
type Specification struct {
	Purpose           string            `json:"purpose"`
	TargetAudience    string            `json:"target_audience"`
	KeyFeatures       []string          `json:"key_features"`
	DesignPreferences DesignPreferences `json:"design_preferences"`
	ContentSections   []string          `json:"content_sections"`
}

// Validate checks that every required field is present and non-empty.
// A specification is all-or-nothing; partial structures are rejected.
func (s *Specification) Validate() error {
	switch {
	case s.Purpose == "":
		return fmt.Errorf("%w: missing purpose", errs.ErrMalformedSpecification)
	case s.TargetAudience == "":
		return fmt.Errorf("%w: missing target_audience", errs.ErrMalformedSpecification)
	case len(s.KeyFeatures) == 0:
		return fmt.Errorf("%w: key_features is empty", errs.ErrMalformedSpecification)
	case s.DesignPreferences.ColorScheme == "":
		return fmt.Errorf("%w: missing design_preferences.color_scheme", errs.ErrMalformedSpecification)
	case s.DesignPreferences.Style == "":
		return fmt.Errorf("%w: missing design_preferences.style", errs.ErrMalformedSpecification)
	case s.DesignPreferences.Layout == "":
		return fmt.Errorf("%w: missing design_preferences.layout", errs.ErrMalformedSpecification)
	case len(s.ContentSections) == 0:
		return fmt.Errorf("%w: content_sections is empty", errs.ErrMalformedSpecification)
	}
	for _, f := range s.KeyFeatures {
		if f == "" {
			return fmt.Errorf("%w: empty key feature", errs.ErrMalformedSpecification)
		}
	}
	for _, c := range s.ContentSections {
		if c == "" {
			return fmt.Errorf("%w: empty content section", errs.ErrMalformedSpecification)
		}
	}
	return nil
}

// Parse decodes and validates a specification from raw JSON.
func Parse(raw []byte) (*Specification, error) {
	var s Specification
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedSpecification, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
