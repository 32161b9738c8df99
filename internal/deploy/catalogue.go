// Package deploy serves the deployment guidance catalogue: the available
// hosting options, step-by-step per-platform instructions, and the canned
// deploy helper replies. The catalogue ships embedded in the binary.
package deploy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nofuss/sitecoach/internal/errs"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

//go:embed helper.yaml
var helperYAML []byte

// Option describes one way to get a generated site onto the internet.
type Option struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Description      string   `yaml:"description" json:"description"`
	BeginnerFriendly bool     `yaml:"beginner_friendly" json:"beginner_friendly"`
	FreeTier         bool     `yaml:"free_tier" json:"free_tier"`
	Steps            []string `yaml:"steps" json:"steps"`
}

// Step is one stage of a platform walkthrough.
type Step struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Details     []string `yaml:"details" json:"details"`
}

// Resource links further reading for a platform.
type Resource struct {
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// Instructions is the full walkthrough document for one platform.
type Instructions struct {
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Steps       []Step     `yaml:"steps" json:"steps"`
	Resources   []Resource `yaml:"resources" json:"resources"`
}

type catalogue struct {
	Options      []Option                `yaml:"options"`
	Instructions map[string]Instructions `yaml:"instructions"`
}

// Catalogue holds the parsed deployment guidance content.
type Catalogue struct {
	options      []Option
	instructions map[string]Instructions
	helper       map[string]string
}

// Load parses the embedded catalogue. It fails only if the embedded
// documents are malformed, so callers treat an error as fatal.
func Load() (*Catalogue, error) {
	var cat catalogue
	if err := yaml.Unmarshal(catalogueYAML, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse deploy catalogue: %w", err)
	}
	helper := map[string]string{}
	if err := yaml.Unmarshal(helperYAML, &helper); err != nil {
		return nil, fmt.Errorf("failed to parse deploy helper replies: %w", err)
	}
	return &Catalogue{
		options:      cat.Options,
		instructions: cat.Instructions,
		helper:       helper,
	}, nil
}

// Options returns the hosting options in catalogue order.
func (c *Catalogue) Options() []Option {
	out := make([]Option, len(c.options))
	copy(out, c.options)
	return out
}

// InstructionsFor returns the walkthrough for a platform with the project
// name substituted into the steps. Unknown platforms return ErrNotFound.
func (c *Catalogue) InstructionsFor(platform, projectName string) (*Instructions, error) {
	ins, ok := c.instructions[platform]
	if !ok {
		return nil, fmt.Errorf("%w: unknown platform %q", errs.ErrNotFound, platform)
	}
	out := Instructions{
		Title:       ins.Title,
		Description: ins.Description,
		Steps:       make([]Step, len(ins.Steps)),
		Resources:   append([]Resource{}, ins.Resources...),
	}
	for i, step := range ins.Steps {
		out.Steps[i] = Step{
			Title:       step.Title,
			Description: step.Description,
			Details:     make([]string, len(step.Details)),
		}
		for j, d := range step.Details {
			out.Steps[i].Details[j] = interpolate(d, projectName)
		}
	}
	return &out, nil
}

// HelperReply routes a deploy chat message to a canned walkthrough by
// keyword. The routing is ordered: platform questions win over download
// questions, which win over copy-paste questions.
func (c *Catalogue) HelperReply(userMessage, projectName string) string {
	msg := strings.ToLower(userMessage)
	var key string
	switch {
	case strings.Contains(msg, "vercel") || strings.Contains(msg, "option 1") || strings.Contains(msg, "github"):
		key = "vercel"
	case strings.Contains(msg, "download") || strings.Contains(msg, "zip") || strings.Contains(msg, "option 2"):
		key = "zip"
	case strings.Contains(msg, "copy") || strings.Contains(msg, "paste") || strings.Contains(msg, "option 3") || strings.Contains(msg, "code"):
		key = "copy-paste"
	default:
		key = "fallback"
	}
	return interpolate(c.helper[key], projectName)
}

func interpolate(s, projectName string) string {
	return strings.ReplaceAll(s, "{project}", projectName)
}
