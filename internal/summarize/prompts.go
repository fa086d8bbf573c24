package summarize

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompts holds the templates sent to the model.
type Prompts struct {
	System  string `yaml:"system"`
	Summary string `yaml:"summary"`
	Partial string `yaml:"partial"`
}

type summaryParams struct {
	Title      string
	Transcript string
}

type partialParams struct {
	Part       int
	Total      int
	Transcript string
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *Prompts {
	p, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads prompts from a YAML file. Templates missing from the
// file fall back to the built-in ones.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := parsePrompts(data)
	if err != nil {
		return nil, err
	}

	def := DefaultPrompts()
	if p.System == "" {
		p.System = def.System
	}
	if p.Summary == "" {
		p.Summary = def.Summary
	}
	if p.Partial == "" {
		p.Partial = def.Partial
	}
	return p, nil
}

func parsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) renderSummary(params summaryParams) (string, error) {
	return render(p.Summary, params)
}

func (p *Prompts) renderPartial(params partialParams) (string, error) {
	return render(p.Partial, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
