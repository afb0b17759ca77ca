package domain

import "maps"

// Metrics is the viewport snapshot a document is created against.
type Metrics struct {
	Width      float64
	Height     float64
	MinWidth   float64
	MaxWidth   float64
	MinHeight  float64
	MaxHeight  float64
	DPI        float64
	Shape      string
	Theme      string
	Mode       string
	AutoSizing bool
}

// DocumentConfig is the configuration snapshot owned by one document.
type DocumentConfig struct {
	Metrics     Metrics
	Environment map[string]any
	// FillMissingData is false for embedded documents prepared on behalf of a parent.
	FillMissingData bool
}

// WithEnvironment returns a copy whose environment is base overlaid with extra.
func (c DocumentConfig) WithEnvironment(extra map[string]any) DocumentConfig {
	env := make(map[string]any, len(c.Environment)+len(extra))
	maps.Copy(env, c.Environment)
	maps.Copy(env, extra)
	c.Environment = env
	return c
}

// ImportRequest is a named and versioned package requested by a document.
type ImportRequest struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Version string `json:"version" yaml:"version" mapstructure:"version"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
}

// Key identifies the package independently of its source.
func (r ImportRequest) Key() string {
	return r.Name + "/" + r.Version
}

// PackageResult is the outcome of loading one import request.
type PackageResult struct {
	Request ImportRequest
	Data    []byte
	Err     error
}
