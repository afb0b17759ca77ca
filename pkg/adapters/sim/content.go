package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/viewhost/pkg/domain"
)

// Component is an item of the document's main template.
type Component struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Source  string   `json:"source,omitempty"`
	Headers []string `json:"headers,omitempty"`
}

type extensionSpec struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type documentSpec struct {
	Type         string                    `json:"type"`
	Version      string                    `json:"version"`
	Import       []domain.ImportRequest    `json:"import"`
	Extensions   []extensionSpec           `json:"extensions"`
	Settings     map[string]map[string]any `json:"settings"`
	MainTemplate struct {
		Items []Component `json:"items"`
	} `json:"mainTemplate"`
}

type packageSpec struct {
	Import []domain.ImportRequest `json:"import"`
}

// Content is a parsed simulated document.
type Content struct {
	spec documentSpec
	data map[string]any

	mu      sync.Mutex
	pending []domain.ImportRequest
	loaded  map[string]bool
	failed  []string
}

// ParseContent parses a document and its data payload.
func ParseContent(document, data []byte) (*Content, error) {
	var spec documentSpec
	if err := json.Unmarshal(document, &spec); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	if spec.Type != "APL" {
		return nil, fmt.Errorf("invalid document type %q", spec.Type)
	}
	c := &Content{spec: spec, loaded: make(map[string]bool)}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.data); err != nil {
			return nil, fmt.Errorf("invalid document data: %w", err)
		}
	}
	c.enqueue(spec.Import)
	return c, nil
}

// enqueue adds imports that are neither loaded nor pending. c.mu must be held
// or c not yet shared.
func (c *Content) enqueue(imports []domain.ImportRequest) {
	for _, req := range imports {
		if c.loaded[req.Key()] || slices.ContainsFunc(c.pending, func(p domain.ImportRequest) bool { return p.Key() == req.Key() }) {
			continue
		}
		c.pending = append(c.pending, req)
	}
}

func (c *Content) IsWaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failed) == 0 && len(c.pending) > 0
}

func (c *Content) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failed) == 0 && len(c.pending) == 0
}

func (c *Content) IsError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failed) > 0
}

func (c *Content) RequestedPackages() []domain.ImportRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// AddPackage satisfies req. Imports declared by the package become pending.
func (c *Content) AddPackage(req domain.ImportRequest, data []byte) error {
	var pkg packageSpec
	if err := json.Unmarshal(data, &pkg); err != nil {
		return &domain.PackageError{Name: req.Name, Version: req.Version, Err: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = slices.DeleteFunc(c.pending, func(p domain.ImportRequest) bool { return p.Key() == req.Key() })
	c.loaded[req.Key()] = true
	c.enqueue(pkg.Import)
	return nil
}

func (c *Content) PackageFailed(req domain.ImportRequest, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, req.Key()+": "+reason)
}

// Err describes the package failures, if any.
func (c *Content) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.failed) == 0 {
		return nil
	}
	return errors.New(strings.Join(c.failed, "; "))
}

// Loaded returns the keys of the packages added so far, sorted.
func (c *Content) Loaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.loaded))
}

func (c *Content) ExtensionSettings(uri string) (map[string]any, bool) {
	for _, ext := range c.spec.Extensions {
		if ext.URI == uri {
			return maps.Clone(c.spec.Settings[ext.Name]), true
		}
	}
	return nil, false
}

// extensionURI resolves the URI of an extension by the name the document gave it.
func (c *Content) extensionURI(name string) (string, bool) {
	for _, ext := range c.spec.Extensions {
		if ext.Name == name {
			return ext.URI, true
		}
	}
	return "", false
}

// Components returns the items of the main template.
func (c *Content) Components() []Component {
	return slices.Clone(c.spec.MainTemplate.Items)
}
