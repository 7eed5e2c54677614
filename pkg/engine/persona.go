package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// personaFile is the on-disk YAML layout for a custom template pack.
// State keys are the lowercase state names.
type personaFile struct {
	States    map[string][]string `yaml:"states"`
	Fills     map[string][]string `yaml:"fills"`
	Jailbreak []string            `yaml:"jailbreak"`
	Survival  []string            `yaml:"survival"`
	Fallback  string              `yaml:"fallback"`
}

// LoadTemplatePack reads a persona definition from a YAML file. Missing
// sections fall back to the built-in persona, so a pack can override
// just one state's lines. Every state that is present must carry at
// least one template.
func LoadTemplatePack(path string) (*TemplatePack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	return parseTemplatePack(raw)
}

func parseTemplatePack(raw []byte) (*TemplatePack, error) {
	var file personaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("persona: parse: %w", err)
	}

	pack := DefaultTemplatePack()

	for name, lines := range file.States {
		state, err := ParseState(strings.ToUpper(name))
		if err != nil {
			return nil, fmt.Errorf("persona: %w", err)
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("persona: state %s has no templates", name)
		}
		pack.StateTemplates[state] = lines
	}
	for key, options := range file.Fills {
		if len(options) == 0 {
			return nil, fmt.Errorf("persona: fill %s has no options", key)
		}
		pack.Fills[key] = options
	}
	if len(file.Jailbreak) > 0 {
		pack.JailbreakLines = file.Jailbreak
	}
	if len(file.Survival) > 0 {
		pack.SurvivalLines = file.Survival
	}
	if file.Fallback != "" {
		pack.Fallback = file.Fallback
	}
	return pack, nil
}
