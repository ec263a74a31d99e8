package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/buildspec/internal/compiler"
	"github.com/roach88/buildspec/internal/env"
	"github.com/roach88/buildspec/internal/ir"
)

// DefaultsFile names the embedded declaration in error positions.
const DefaultsFile = "defaults/build.cue"

//go:embed defaults/build.cue
var defaultDeclaration []byte

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Options select where declarations come from and how the mode signal is
// read. The zero value loads the embedded defaults with the process
// environment.
type Options struct {
	// Dir holds *.cue, *.yaml and *.yml declarations. Empty selects the
	// embedded defaults.
	Dir string
	// Root is where relative output paths resolve. Defaults to Dir, or the
	// working directory for the embedded defaults.
	Root string
	// Env is consulted for NODE_ENV. Nil means the process environment.
	Env env.Source
	// EnvFiles are .env files layered under Env. Missing files are skipped.
	EnvFiles []string
	// Mode selects fail-fast or collect-all error handling for LoadAll.
	Mode LoadMode
}

// Result contains the results of loading declarations.
type Result struct {
	Config   *ir.BuildConfig
	CUEValue cue.Value // the unified declaration for additional processing
	Files    []string  // declaration files read, sorted; empty for defaults
}

// FileCount returns the number of declaration files read.
func (r *Result) FileCount() int {
	return len(r.Files)
}

// Load produces the build configuration for one session. It returns either
// a complete configuration or the first problem found.
func Load(opts Options) (*ir.BuildConfig, error) {
	opts.Mode = LoadModeFailFast
	res, errs := LoadAll(opts)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return res.Config, nil
}

// LoadAll loads and compiles declarations. With LoadModeCollectAll every
// declaration problem is returned; with LoadModeFailFast only the first.
// The result is nil whenever errs is non-empty.
func LoadAll(opts Options) (*Result, []error) {
	src := opts.Env
	if src == nil {
		src = env.Process{}
	}
	if len(opts.EnvFiles) > 0 {
		layered, err := env.WithDotenv(src, opts.EnvFiles...)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeEnvFailed, Message: err.Error()}}
		}
		src = layered
	}
	mode := env.ResolveMode(src)

	ctx := cuecontext.New()
	var (
		value cue.Value
		files []string
		root  = opts.Root
	)

	if opts.Dir == "" {
		value = ctx.CompileBytes(defaultDeclaration, cue.Filename(DefaultsFile))
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("working directory: %v", err)}}
			}
			root = wd
		}
	} else {
		var err error
		value, files, err = loadDir(ctx, opts.Dir)
		if err != nil {
			return nil, []error{err}
		}
		if root == "" {
			root = opts.Dir
		}
	}

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	cfg, errs := compiler.Compile(value, compiler.Options{Root: root, Mode: mode})
	if len(errs) > 0 {
		if opts.Mode == LoadModeFailFast {
			return nil, errs[:1]
		}
		return nil, errs
	}

	return &Result{Config: cfg, CUEValue: value, Files: files}, nil
}

// loadDir builds one CUE value from every declaration in dir. CUE files
// form a single instance; YAML documents are unified into it. Problems with
// the directory are LoadErrors; problems inside a declaration are
// malformed configurations.
func loadDir(ctx *cue.Context, dir string) (cue.Value, []string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return cue.Value{}, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declaration directory not found: %s", dir)}
	}
	if err != nil {
		return cue.Value{}, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declaration directory: %v", err)}
	}
	if !info.IsDir() {
		return cue.Value{}, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, yamlFiles, err := FindDeclarationFiles(dir)
	if err != nil {
		return cue.Value{}, nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return cue.Value{}, nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no declaration files found in %s", dir)}
	}

	var values []cue.Value

	if len(cueFiles) > 0 {
		instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
		if len(instances) == 0 {
			return cue.Value{}, nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
		}
		inst := instances[0]
		if inst.Err != nil {
			return cue.Value{}, nil, compiler.FormatCUEError(compiler.BuildPath, inst.Err)
		}
		v := ctx.BuildInstance(inst)
		if err := v.Err(); err != nil {
			return cue.Value{}, nil, compiler.FormatCUEError(compiler.BuildPath, err)
		}
		values = append(values, v)
	}

	for _, path := range yamlFiles {
		v, err := buildYAML(ctx, path)
		if err != nil {
			return cue.Value{}, nil, err
		}
		values = append(values, v)
	}

	value := values[0]
	for _, v := range values[1:] {
		value = value.Unify(v)
	}

	files := append(cueFiles, yamlFiles...)
	slices.Sort(files)
	return value, files, nil
}

func buildYAML(ctx *cue.Context, path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	f, err := cueyaml.Extract(path, data)
	if err != nil {
		return cue.Value{}, compiler.FormatCUEError(compiler.BuildPath, err)
	}
	v := ctx.BuildFile(f)
	if err := v.Err(); err != nil {
		return cue.Value{}, compiler.FormatCUEError(compiler.BuildPath, err)
	}
	return v, nil
}

// FindDeclarationFiles lists the CUE and YAML files directly inside dir,
// each sorted by name. Subdirectories are not searched.
func FindDeclarationFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch filepath.Ext(e.Name()) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	return cueFiles, yamlFiles, nil
}
