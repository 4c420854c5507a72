package session

import (
	"fmt"
	"sort"
	"strings"

	"warden/internal/config"
)

// Target describes one external system commands can be pointed at.
type Target struct {
	Name          string
	DisplayName   string
	HealthURL     string
	LogPath       string
	ServiceUnit   string
	RepoPath      string
	DeployCommand []string
}

// TargetRegistry holds the fixed set of named targets. Immutable after construction.
type TargetRegistry struct {
	byName map[string]*Target
	def    *Target
}

// NewTargetRegistry builds a registry from config. The first entry is the default.
func NewTargetRegistry(cfgs []config.TargetConfig) (*TargetRegistry, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}

	byName := make(map[string]*Target, len(cfgs))
	var def *Target
	for _, tc := range cfgs {
		if tc.Name == "" {
			return nil, fmt.Errorf("target name cannot be empty")
		}
		if _, exists := byName[tc.Name]; exists {
			return nil, fmt.Errorf("duplicate target %q", tc.Name)
		}
		t := &Target{
			Name:          tc.Name,
			DisplayName:   tc.DisplayName,
			HealthURL:     tc.HealthURL,
			LogPath:       tc.LogPath,
			ServiceUnit:   tc.ServiceUnit,
			RepoPath:      tc.RepoPath,
			DeployCommand: tc.DeployCommand,
		}
		if t.DisplayName == "" {
			t.DisplayName = t.Name
		}
		byName[t.Name] = t
		if def == nil {
			def = t
		}
	}

	return &TargetRegistry{byName: byName, def: def}, nil
}

// Lookup returns the target with the given name.
func (r *TargetRegistry) Lookup(name string) (*Target, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Default returns the default target (the first configured one).
func (r *TargetRegistry) Default() *Target {
	return r.def
}

// Names returns all target names, sorted.
func (r *TargetRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line-per-target summary for help output and prompts.
func (r *TargetRegistry) Describe() string {
	var b strings.Builder
	for _, name := range r.Names() {
		t := r.byName[name]
		fmt.Fprintf(&b, "- %s (%s)\n", t.Name, t.DisplayName)
	}
	return b.String()
}
