package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona describes one agent the gateway can speak for.
type Persona struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

type personaFile struct {
	Personas map[string]Persona `yaml:"personas"`
}

// PersonaRegistry resolves agent IDs to their system prompts. Hosts may still
// override the prompt per turn; the registry is the fallback for agents with
// no host-supplied personality.
type PersonaRegistry struct {
	personas      map[string]Persona
	defaultPrompt string
}

// LoadPersonas parses the YAML registry at path. A missing file yields an
// empty registry (every agent falls back to defaultPrompt); a malformed file
// is an error.
func LoadPersonas(path, defaultPrompt string) (*PersonaRegistry, error) {
	reg := &PersonaRegistry{
		personas:      map[string]Persona{},
		defaultPrompt: defaultPrompt,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("read personas %s: %w", path, err)
	}

	var pf personaFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse personas %s: %w", path, err)
	}
	if pf.Personas != nil {
		reg.personas = pf.Personas
	}
	return reg, nil
}

// Prompt returns the system prompt for agentID, or the default personality
// when the agent has no registered persona.
func (r *PersonaRegistry) Prompt(agentID string) string {
	if p, ok := r.personas[agentID]; ok && p.Prompt != "" {
		return p.Prompt
	}
	return r.defaultPrompt
}

// Name returns the display name for agentID, falling back to the ID itself.
func (r *PersonaRegistry) Name(agentID string) string {
	if p, ok := r.personas[agentID]; ok && p.Name != "" {
		return p.Name
	}
	return agentID
}

// Len returns the number of registered personas.
func (r *PersonaRegistry) Len() int { return len(r.personas) }
