// Package prompts holds the versioned prompt registry.
//
// Prompt templates are data, not code: they ship as embedded markdown files
// listed in a YAML manifest. The registry is loaded once at startup and
// injected into pipeline components at construction, so prompt iteration and
// A/B swaps never touch pipeline logic.
package prompts

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Prompt names known to the pipeline.
const (
	STARDetection   = "star_detection"
	ImprovementPlan = "improvement_plan"
)

//go:embed manifest.yaml templates/*.md
var assets embed.FS

// Entry is one loaded prompt template with its version tag.
type Entry struct {
	Name    string
	Version string
	Text    string
}

type manifestVersion struct {
	Version     string `yaml:"version"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
	ActivatedAt string `yaml:"activated_at"`
}

type manifest struct {
	Prompts map[string]manifestVersion `yaml:"prompts"`
}

// Registry maps prompt names to their active template. Immutable after Load.
type Registry struct {
	entries map[string]Entry
}

// Load parses the embedded manifest and reads every active template.
func Load() (*Registry, error) {
	raw, err := assets.ReadFile("manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("op=prompts.Load read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("op=prompts.Load parse manifest: %w", err)
	}
	entries := make(map[string]Entry, len(m.Prompts))
	for name, v := range m.Prompts {
		text, err := assets.ReadFile(v.File)
		if err != nil {
			return nil, fmt.Errorf("op=prompts.Load read %s (%s): %w", name, v.File, err)
		}
		entries[name] = Entry{Name: name, Version: v.Version, Text: string(text)}
	}
	return &Registry{entries: entries}, nil
}

// Get returns the active entry for a prompt name.
func (r *Registry) Get(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("op=prompts.Get: unknown prompt %q", name)
	}
	return e, nil
}

// MustGet is Get for names registered at compile time; it panics on a miss,
// which can only happen if the manifest and the constants drift.
func (r *Registry) MustGet(name string) Entry {
	e, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return e
}
