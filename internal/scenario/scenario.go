// Package scenario drives a viewhost from a YAML script. It backs the CLI
// `run` command and doubles as an end-to-end test harness.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/viewhost/pkg/domain"
)

// Script is a parsed scenario file.
type Script struct {
	Name  string `yaml:"name"`
	View  string `yaml:"view"`
	Steps []Step `yaml:"steps"`

	dir string
}

// Step holds exactly one action and an optional expectation checked after it.
type Step struct {
	Render    *RenderStep                `yaml:"render,omitempty"`
	Execute   *ExecuteStep               `yaml:"execute,omitempty"`
	Back      *BackStep                  `yaml:"back,omitempty"`
	Clear     bool                       `yaml:"clear,omitempty"`
	Configure domain.ConfigurationChange `yaml:"configure,omitempty"`
	Display   domain.DisplayState        `yaml:"display,omitempty"`
	Pause     bool                       `yaml:"pause,omitempty"`
	Resume    bool                       `yaml:"resume,omitempty"`
	Wait      time.Duration              `yaml:"wait,omitempty"`

	Expect *Expectation `yaml:"expect,omitempty"`
}

// RenderStep renders a document read from File, or given inline.
type RenderStep struct {
	File     string         `yaml:"file,omitempty"`
	Document any            `yaml:"document,omitempty"`
	Data     any            `yaml:"data,omitempty"`
	Token    string         `yaml:"token,omitempty"`
	Env      map[string]any `yaml:"environment,omitempty"`
}

// ExecuteStep runs commands against the current document.
type ExecuteStep struct {
	Commands any  `yaml:"commands"`
	Async    bool `yaml:"async,omitempty"`
}

// BackStep performs a system back when Type is empty.
type BackStep struct {
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Expectation is checked after a step. Empty fields are not checked.
type Expectation struct {
	Current   string   `yaml:"current,omitempty"`
	State     string   `yaml:"state,omitempty"`
	Backstack []string `yaml:"backstack,omitempty"`
	Restored  *bool    `yaml:"restored,omitempty"`
	Completed *bool    `yaml:"completed,omitempty"`
	Error     string   `yaml:"error,omitempty"`
}

// Load reads a script from path. Relative document files resolve against the
// script's directory.
func Load(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates a script.
func Parse(raw []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if s.View == "" {
		s.View = "main"
	}
	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return nil, fmt.Errorf("step %d: expected exactly one action, found %d", i+1, n)
		}
		if step.Display != "" && !step.Display.Valid() {
			return nil, fmt.Errorf("step %d: invalid display state %q", i+1, step.Display)
		}
		if r := step.Render; r != nil && (r.File == "") == (r.Document == nil) {
			return nil, fmt.Errorf("step %d: render needs either file or document", i+1)
		}
	}
	return &s, nil
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Render != nil, s.Execute != nil, s.Back != nil, s.Clear,
		s.Configure != nil, s.Display != "", s.Pause, s.Resume, s.Wait > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

// Kind names the step's action for logs.
func (s Step) Kind() string {
	switch {
	case s.Render != nil:
		return "render"
	case s.Execute != nil:
		return "execute"
	case s.Back != nil:
		return "back"
	case s.Clear:
		return "clear"
	case s.Configure != nil:
		return "configure"
	case s.Display != "":
		return "display"
	case s.Pause:
		return "pause"
	case s.Resume:
		return "resume"
	default:
		return "wait"
	}
}

// documentJSON returns the render step's document source.
func (s *Script) documentJSON(r *RenderStep) ([]byte, error) {
	if r.File != "" {
		path := r.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		return os.ReadFile(path)
	}
	return toJSON(r.Document)
}

// toJSON re-encodes a YAML value, which may be a JSON string, as JSON.
func toJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if str, ok := v.(string); ok {
		if !json.Valid([]byte(str)) {
			return nil, fmt.Errorf("invalid JSON: %q", str)
		}
		return []byte(str), nil
	}
	return json.Marshal(v)
}
