// Package prompt renders the system instruction handed to the completion
// service. The persona is template data, not code: swapping sales tactics
// means swapping the template, never branching.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/get-synced/Magnet/internal/discovery"
)

// templateContext is the data a persona template may reference.
type templateContext struct {
	Industry   string
	Challenges string
	Tools      string
	Approach   string
}

// Builder renders a system instruction from a discovery context.
// Build is pure: the same context always yields byte-identical output.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder parses the persona template. An empty template selects
// DefaultPersona.
func NewBuilder(personaTemplate string) (*Builder, error) {
	if strings.TrimSpace(personaTemplate) == "" {
		personaTemplate = DefaultPersona
	}
	tmpl, err := template.New("persona").Option("missingkey=error").Parse(personaTemplate)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse persona template: %w", err)
	}

	// Fail at construction time, not per turn: render once with a probe
	// context so a template referencing unknown fields is rejected here.
	b := &Builder{tmpl: tmpl}
	if _, err := b.render(discovery.Context{}); err != nil {
		return nil, fmt.Errorf("prompt: persona template rejected: %w", err)
	}
	return b, nil
}

// MustNewBuilder is NewBuilder for compile-time-constant templates.
func MustNewBuilder(personaTemplate string) *Builder {
	b, err := NewBuilder(personaTemplate)
	if err != nil {
		panic(err)
	}
	return b
}

// Build renders the system instruction. Missing context fields render as
// "Unknown"; a free-text industry has its "Other:" marker stripped.
func (b *Builder) Build(ctx discovery.Context) string {
	out, err := b.render(ctx)
	if err != nil {
		// The template was validated in NewBuilder, so this cannot
		// happen for reachable inputs. Degrade to the bare persona.
		return DefaultPersona
	}
	return out
}

func (b *Builder) render(ctx discovery.Context) (string, error) {
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, templateContext{
		Industry:   ctx.IndustryLabel(),
		Challenges: ctx.ChallengesLabel(),
		Tools:      ctx.ToolsLabel(),
		Approach:   ctx.ContinuationLabel(),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
