package ir

import (
	"fmt"
	"slices"
)

// Mode selects the build profile.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ValidModes lists the accepted modes.
var ValidModes = map[Mode]bool{
	ModeDevelopment: true,
	ModeProduction:  true,
}

// BuildConfig is the loaded build configuration handed to the external
// transformer and bundler. It is produced once per build session and is
// read-only afterwards; use Clone to obtain a copy that may be changed.
type BuildConfig struct {
	// Transformer inputs.
	Target  Target   `json:"target" yaml:"target"`
	Presets []Preset `json:"presets" yaml:"presets"`
	Plugins []Plugin `json:"plugins" yaml:"plugins"`

	// Bundler inputs.
	Entry     string    `json:"entry" yaml:"entry"`
	Output    Output    `json:"output" yaml:"output"`
	Resolve   Resolve   `json:"resolve" yaml:"resolve"`
	Rules     []Rule    `json:"rules" yaml:"rules"`
	DevServer DevServer `json:"dev_server" yaml:"dev_server"`
	Pages     []Page    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Mode      Mode      `json:"mode" yaml:"mode"`
}

// Target is the runtime transformed code must stay compatible with.
type Target struct {
	Runtime string `json:"runtime" yaml:"runtime"`
	Version string `json:"version" yaml:"version"`
}

// String renders the target as "runtime version", e.g. "node 16.13".
func (t Target) String() string {
	return fmt.Sprintf("%s %s", t.Runtime, t.Version)
}

// Preset is a syntax transformation preset. Options are preset specific.
type Preset struct {
	Name    string `json:"name" yaml:"name"`
	Options Object `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plugin is an additional transformation plugin applied after presets.
type Plugin struct {
	Name    string `json:"name" yaml:"name"`
	Options Object `json:"options,omitempty" yaml:"options,omitempty"`
}

// Output describes where and how bundles are emitted.
type Output struct {
	// Dir is absolute, resolved against the declaration root.
	Dir string `json:"dir" yaml:"dir"`
	// Filename may contain placeholder tokens such as [contenthash].
	Filename   string `json:"filename" yaml:"filename"`
	Clean      bool   `json:"clean" yaml:"clean"`
	PublicPath string `json:"public_path" yaml:"public_path"`
}

// Resolve holds module lookup rules.
type Resolve struct {
	// Extensions are tried in order when a request has no known suffix.
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// Rule routes matching source files to a handler.
type Rule struct {
	Test    string `json:"test" yaml:"test"`
	Exclude string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// Handler identifies the external processing pipeline.
	Handler string   `json:"handler" yaml:"handler"`
	Use     []string `json:"use,omitempty" yaml:"use,omitempty"`
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`
}

// DevServer holds development server options.
type DevServer struct {
	HistoryFallback bool `json:"history_fallback" yaml:"history_fallback"`
	// Port 0 leaves the choice to the dev server.
	Port int  `json:"port" yaml:"port"`
	Open bool `json:"open" yaml:"open"`
}

// Page is an HTML document the bundler emits with the bundle injected.
type Page struct {
	Template string `json:"template" yaml:"template"`
	Favicon  string `json:"favicon,omitempty" yaml:"favicon,omitempty"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
}

// Clone returns a deep copy.
func (c *BuildConfig) Clone() *BuildConfig {
	if c == nil {
		return nil
	}
	out := *c

	if c.Presets != nil {
		out.Presets = make([]Preset, len(c.Presets))
		for i, p := range c.Presets {
			out.Presets[i] = Preset{Name: p.Name, Options: p.Options.Clone()}
		}
	}
	if c.Plugins != nil {
		out.Plugins = make([]Plugin, len(c.Plugins))
		for i, p := range c.Plugins {
			out.Plugins[i] = Plugin{Name: p.Name, Options: p.Options.Clone()}
		}
	}
	if c.Rules != nil {
		out.Rules = make([]Rule, len(c.Rules))
		for i, r := range c.Rules {
			r.Use = slices.Clone(r.Use)
			out.Rules[i] = r
		}
	}
	out.Resolve.Extensions = slices.Clone(c.Resolve.Extensions)
	out.Pages = slices.Clone(c.Pages)
	return &out
}
