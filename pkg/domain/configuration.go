package domain

import (
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
)

// Keys recognised in a ConfigurationChange.
const (
	KeyWidth        = "width"
	KeyHeight       = "height"
	KeyMinWidth     = "minWidth"
	KeyMaxWidth     = "maxWidth"
	KeyMinHeight    = "minHeight"
	KeyMaxHeight    = "maxHeight"
	KeyTheme        = "theme"
	KeyDocTheme     = "docTheme"
	KeyMode         = "mode"
	KeyFontScale    = "fontScale"
	KeyScreenMode   = "screenMode"
	KeyScreenReader = "screenReader"
	KeyEnvironment  = "environment"
)

// ConfigurationChange is an incremental set of viewport, theme and environment changes.
// Merging two changes keeps every key, later values overriding earlier ones.
type ConfigurationChange map[string]any

// Merge returns a new change holding c overlaid with next.
func (c ConfigurationChange) Merge(next ConfigurationChange) ConfigurationChange {
	out := make(ConfigurationChange, len(c)+len(next))
	maps.Copy(out, c)
	for k, v := range next {
		if k == KeyEnvironment {
			out[k] = mergeEnvironment(out[k], v)
			continue
		}
		out[k] = v
	}
	return out
}

func mergeEnvironment(prev, next any) any {
	p, ok1 := prev.(map[string]any)
	n, ok2 := next.(map[string]any)
	if !ok1 || !ok2 {
		return next
	}
	out := make(map[string]any, len(p)+len(n))
	maps.Copy(out, p)
	maps.Copy(out, n)
	return out
}

// IsEmpty reports whether the change carries no keys.
func (c ConfigurationChange) IsEmpty() bool {
	return len(c) == 0
}

// ViewportChange is the typed view of a ConfigurationChange.
type ViewportChange struct {
	Width        float64        `mapstructure:"width"`
	Height       float64        `mapstructure:"height"`
	MinWidth     float64        `mapstructure:"minWidth"`
	MaxWidth     float64        `mapstructure:"maxWidth"`
	MinHeight    float64        `mapstructure:"minHeight"`
	MaxHeight    float64        `mapstructure:"maxHeight"`
	Theme        string         `mapstructure:"theme"`
	DocTheme     string         `mapstructure:"docTheme"`
	Mode         string         `mapstructure:"mode"`
	FontScale    float64        `mapstructure:"fontScale"`
	ScreenMode   string         `mapstructure:"screenMode"`
	ScreenReader bool           `mapstructure:"screenReader"`
	Environment  map[string]any `mapstructure:"environment"`
}

// HasSize reports whether both width and height are present.
func (v ViewportChange) HasSize() bool {
	return v.Width > 0 && v.Height > 0
}

// HasBounds reports whether every auto-sizing bound is present.
func (v ViewportChange) HasBounds() bool {
	return v.MinWidth > 0 && v.MaxWidth > 0 && v.MinHeight > 0 && v.MaxHeight > 0
}

// Viewport decodes the change into its typed form.
func (c ConfigurationChange) Viewport() (ViewportChange, error) {
	var out ViewportChange
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(c)); err != nil {
		return out, fmt.Errorf("invalid configuration change: %w", err)
	}
	return out, nil
}
