package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/buildspec/internal/ir"
)

// BuildPath is the top-level field holding the build declaration.
const BuildPath = "build"

// Options control compilation.
type Options struct {
	// Root is the directory relative paths resolve against. Output.Dir is
	// joined with it; an empty Root leaves Output.Dir relative.
	Root string
	// Mode is the build mode computed from the environment signal.
	Mode ir.Mode
}

// Compile compiles the build declaration in v and returns every problem
// found, in declaration order. The configuration is nil whenever errs is
// non-empty.
func Compile(v cue.Value, opts Options) (*ir.BuildConfig, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{FormatCUEError(BuildPath, err)}
	}

	build := v.LookupPath(cue.ParsePath(BuildPath))
	if !build.Exists() {
		return nil, []error{&CompileError{
			Field:   BuildPath,
			Code:    ErrCodeMissingField,
			Message: "build declaration is required",
			Pos:     v.Pos(),
		}}
	}
	if err := build.Validate(); err != nil {
		return nil, []error{FormatCUEError(BuildPath, err)}
	}

	c := &walker{pos: make(map[string]token.Pos), failed: make(map[string]bool)}
	cfg := c.build(build, opts)

	for _, ve := range Validate(cfg) {
		if c.reported(ve.Field) {
			continue
		}
		c.errs = append(c.errs, &CompileError{
			Field:   ve.Field,
			Code:    ve.Code,
			Message: ve.Message,
			Pos:     c.pos[ve.Field],
		})
	}

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return cfg, nil
}

// walker extracts fields and records their positions so that semantic
// problems found by Validate can point back at the declaration.
type walker struct {
	errs   []error
	pos    map[string]token.Pos
	failed map[string]bool
}

func (c *walker) fail(err error) {
	if ce, ok := err.(*CompileError); ok {
		c.failed[ce.Field] = true
	}
	c.errs = append(c.errs, err)
}

func (c *walker) missing(field string, parent cue.Value) {
	c.fail(&CompileError{
		Field:   field,
		Code:    ErrCodeMissingField,
		Message: "field is required",
		Pos:     parent.Pos(),
	})
}

// reported reports whether field, or a parent of it, already has an error.
func (c *walker) reported(field string) bool {
	for f := field; f != ""; f = parentField(f) {
		if c.failed[f] {
			return true
		}
	}
	return false
}

// parentField returns "rules[1]" for "rules[1].test" and "rules" for
// "rules[1]".
func parentField(field string) string {
	i := strings.LastIndexAny(field, ".[")
	if i <= 0 {
		return ""
	}
	return field[:i]
}

// lookup returns the child and records its position.
func (c *walker) lookup(parent cue.Value, name, field string) (cue.Value, bool) {
	v := parent.LookupPath(cue.ParsePath(name))
	if !v.Exists() {
		return v, false
	}
	c.pos[field] = v.Pos()
	return v, true
}

func (c *walker) str(parent cue.Value, name, field string, required bool) string {
	v, ok := c.lookup(parent, name, field)
	if !ok {
		if required {
			c.missing(field, parent)
		}
		return ""
	}
	s, err := v.String()
	if err != nil {
		c.fail(c.kindError(field, v, "string"))
		return ""
	}
	return s
}

func (c *walker) boolean(parent cue.Value, name, field string) bool {
	v, ok := c.lookup(parent, name, field)
	if !ok {
		return false
	}
	b, err := v.Bool()
	if err != nil {
		c.fail(c.kindError(field, v, "bool"))
		return false
	}
	return b
}

func (c *walker) integer(parent cue.Value, name, field string) int {
	v, ok := c.lookup(parent, name, field)
	if !ok {
		return 0
	}
	n, err := v.Int64()
	if err != nil {
		c.fail(c.kindError(field, v, "int"))
		return 0
	}
	return int(n)
}

func (c *walker) stringList(parent cue.Value, name, field string) []string {
	v, ok := c.lookup(parent, name, field)
	if !ok {
		return nil
	}
	iter, err := v.List()
	if err != nil {
		c.fail(c.kindError(field, v, "list of strings"))
		return nil
	}
	out := []string{}
	for i := 0; iter.Next(); i++ {
		elemField := fmt.Sprintf("%s[%d]", field, i)
		elem := iter.Value()
		c.pos[elemField] = elem.Pos()
		s, err := elem.String()
		if err != nil {
			c.fail(c.kindError(elemField, elem, "string"))
			continue
		}
		out = append(out, s)
	}
	return out
}

// kindError reports a value of the wrong kind. CUE conflicts surface with
// their own message; everything else gets an "expected" message.
func (c *walker) kindError(field string, v cue.Value, want string) error {
	if verr := v.Err(); verr != nil {
		return FormatCUEError(field, verr)
	}
	if !v.IsConcrete() {
		return &CompileError{
			Field:   field,
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("expected concrete %s", want),
			Pos:     v.Pos(),
		}
	}
	return &CompileError{
		Field:   field,
		Code:    ErrCodeInvalidType,
		Message: fmt.Sprintf("expected %s, got %v", want, v.Kind()),
		Pos:     v.Pos(),
	}
}

func (c *walker) build(v cue.Value, opts Options) *ir.BuildConfig {
	cfg := &ir.BuildConfig{
		Mode: opts.Mode,
	}

	if t, ok := c.lookup(v, "target", "target"); ok {
		cfg.Target = ir.Target{
			Runtime: c.str(t, "runtime", "target.runtime", true),
			Version: c.str(t, "version", "target.version", true),
		}
	} else {
		c.missing("target", v)
	}

	cfg.Presets = c.presets(v)
	cfg.Plugins = c.plugins(v)

	cfg.Entry = c.str(v, "entry", "entry", true)

	if o, ok := c.lookup(v, "output", "output"); ok {
		cfg.Output = ir.Output{
			Dir:        c.str(o, "dir", "output.dir", true),
			Filename:   c.str(o, "filename", "output.filename", true),
			Clean:      c.boolean(o, "clean", "output.clean"),
			PublicPath: c.str(o, "publicPath", "output.public_path", false),
		}
		if strings.TrimSpace(cfg.Output.Dir) != "" {
			if !filepath.IsAbs(cfg.Output.Dir) && opts.Root != "" {
				cfg.Output.Dir = filepath.Join(opts.Root, cfg.Output.Dir)
			}
			cfg.Output.Dir = filepath.Clean(cfg.Output.Dir)
		}
	} else {
		c.missing("output", v)
	}

	cfg.Resolve.Extensions = []string{}
	if r, ok := c.lookup(v, "resolve", "resolve"); ok {
		if exts := c.stringList(r, "extensions", "resolve.extensions"); exts != nil {
			cfg.Resolve.Extensions = exts
		}
	}

	cfg.Rules = c.rules(v)

	if d, ok := c.lookup(v, "devServer", "dev_server"); ok {
		cfg.DevServer = ir.DevServer{
			HistoryFallback: c.boolean(d, "historyApiFallback", "dev_server.history_fallback"),
			Port:            c.integer(d, "port", "dev_server.port"),
			Open:            c.boolean(d, "open", "dev_server.open"),
		}
	}

	cfg.Pages = c.pages(v)

	return cfg
}

// namedEntries walks a list whose elements are either a bare name string
// or a struct with name and optional options.
func (c *walker) namedEntries(v cue.Value, name string) []namedEntry {
	list, ok := c.lookup(v, name, name)
	if !ok {
		return []namedEntry{}
	}
	iter, err := list.List()
	if err != nil {
		c.fail(c.kindError(name, list, "list"))
		return []namedEntry{}
	}

	out := []namedEntry{}
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("%s[%d]", name, i)
		elem := iter.Value()
		c.pos[field] = elem.Pos()
		c.pos[field+".name"] = elem.Pos()

		if s, err := elem.String(); err == nil {
			out = append(out, namedEntry{name: s})
			continue
		}
		if elem.IncompleteKind() != cue.StructKind {
			c.fail(c.kindError(field, elem, "name string or struct"))
			continue
		}

		entry := namedEntry{name: c.str(elem, "name", field+".name", true)}
		if opts, ok := c.lookup(elem, "options", field+".options"); ok {
			obj, err := toObject(field+".options", opts)
			if err != nil {
				c.fail(err)
				continue
			}
			entry.options = obj
		}
		out = append(out, entry)
	}
	return out
}

type namedEntry struct {
	name    string
	options ir.Object
}

func (c *walker) presets(v cue.Value) []ir.Preset {
	entries := c.namedEntries(v, "presets")
	out := make([]ir.Preset, len(entries))
	for i, e := range entries {
		out[i] = ir.Preset{Name: e.name, Options: e.options}
	}
	return out
}

func (c *walker) plugins(v cue.Value) []ir.Plugin {
	entries := c.namedEntries(v, "plugins")
	out := make([]ir.Plugin, len(entries))
	for i, e := range entries {
		out[i] = ir.Plugin{Name: e.name, Options: e.options}
	}
	return out
}

func (c *walker) rules(v cue.Value) []ir.Rule {
	list, ok := c.lookup(v, "rules", "rules")
	if !ok {
		return []ir.Rule{}
	}
	iter, err := list.List()
	if err != nil {
		c.fail(c.kindError("rules", list, "list"))
		return []ir.Rule{}
	}

	out := []ir.Rule{}
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("rules[%d]", i)
		elem := iter.Value()
		c.pos[field] = elem.Pos()
		out = append(out, ir.Rule{
			Test:    c.str(elem, "test", field+".test", true),
			Exclude: c.str(elem, "exclude", field+".exclude", false),
			Handler: c.str(elem, "handler", field+".handler", true),
			Use:     c.stringList(elem, "use", field+".use"),
			Type:    c.str(elem, "type", field+".type", false),
		})
	}
	return out
}

func (c *walker) pages(v cue.Value) []ir.Page {
	list, ok := c.lookup(v, "pages", "pages")
	if !ok {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		c.fail(c.kindError("pages", list, "list"))
		return nil
	}

	var out []ir.Page
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("pages[%d]", i)
		elem := iter.Value()
		c.pos[field] = elem.Pos()
		out = append(out, ir.Page{
			Template: c.str(elem, "template", field+".template", true),
			Favicon:  c.str(elem, "favicon", field+".favicon", false),
			Filename: c.str(elem, "filename", field+".filename", false),
		})
	}
	return out
}
