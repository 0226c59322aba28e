package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/navigation"
)

// Surface types a scenario can run against.
const (
	SurfaceModal = "modal"
	SurfaceStack = "stack"
)

// Step operations.
const (
	OpSet     = "set"
	OpClear   = "clear"
	OpDismiss = "dismiss"
	OpBack    = "back"
	OpReady   = "ready"
	OpAdvance = "advance"
	OpSettle  = "settle"
)

var ops = []string{OpSet, OpClear, OpDismiss, OpBack, OpReady, OpAdvance, OpSettle}

// Scenario is a scripted sequence of state writes and user actions replayed
// against one surface.
//
//	name: deep link into an editor
//	surface: modal
//	ready: false
//	presenters:
//	  - name: editor
//	    kind: sheet
//	steps:
//	  - {op: set, target: editor, id: "42", title: Draft}
//	  - {op: ready}
//	  - {op: dismiss}
type Scenario struct {
	Name       string      `yaml:"name"`
	Surface    string      `yaml:"surface"`
	Ready      *bool       `yaml:"ready,omitempty"`
	Presenters []Presenter `yaml:"presenters"`
	Steps      []Step      `yaml:"steps"`
}

// Presenter declares one piece of optional state and how it is presented.
type Presenter struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// Step is one scenario action.
type Step struct {
	Op       string        `yaml:"op"`
	Target   string        `yaml:"target,omitempty"`
	ID       string        `yaml:"id,omitempty"`
	Title    string        `yaml:"title,omitempty"`
	Animated bool          `yaml:"animated,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

// IsReady reports whether the surface starts ready. Defaults to true.
func (s *Scenario) IsReady() bool {
	return s.Ready == nil || *s.Ready
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, configError("config.ParseScenario", fmt.Errorf("failed to parse scenario: %w", err))
	}
	if s.Surface == "" {
		s.Surface = SurfaceModal
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks surface, presenter kinds, step operations and targets.
func (s *Scenario) Validate() error {
	const op = "config.Scenario.Validate"

	if s.Surface != SurfaceModal && s.Surface != SurfaceStack {
		return configError(op, fmt.Errorf("unknown surface %q (want %s or %s)", s.Surface, SurfaceModal, SurfaceStack))
	}

	names := make([]string, 0, len(s.Presenters))
	for _, p := range s.Presenters {
		if p.Name == "" {
			return configError(op, fmt.Errorf("presenter without a name"))
		}
		if slices.Contains(names, p.Name) {
			return configError(op, fmt.Errorf("duplicate presenter %q", p.Name))
		}
		kind, ok := navigation.ParseKind(p.Kind)
		if !ok {
			return configError(op, fmt.Errorf("presenter %q: unknown kind %q", p.Name, p.Kind))
		}
		if (kind == navigation.KindPush) != (s.Surface == SurfaceStack) {
			return configError(op, fmt.Errorf("presenter %q: kind %s cannot run on a %s surface", p.Name, kind, s.Surface))
		}
		names = append(names, p.Name)
	}

	for i, step := range s.Steps {
		if !slices.Contains(ops, step.Op) {
			return configError(op, fmt.Errorf("step %d: unknown op %q", i+1, step.Op))
		}
		switch step.Op {
		case OpSet, OpClear:
			if !slices.Contains(names, step.Target) {
				return configError(op, fmt.Errorf("step %d: unknown target %q", i+1, step.Target))
			}
			if step.Op == OpSet && step.ID == "" {
				return configError(op, fmt.Errorf("step %d: set needs an id", i+1))
			}
		case OpBack:
			if s.Surface != SurfaceStack {
				return configError(op, fmt.Errorf("step %d: back needs a stack surface", i+1))
			}
		case OpAdvance:
			if step.Duration <= 0 {
				return configError(op, fmt.Errorf("step %d: advance needs a positive duration", i+1))
			}
		}
	}
	return nil
}

func configError(op string, err error) error {
	return &errors.NavError{Op: op, Kind: errors.KindConfig, Err: err}
}
