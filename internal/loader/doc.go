// Package loader produces the build configuration for a session.
//
// Declarations are CUE, optionally mixed with YAML documents of the same
// shape. Without a directory the embedded defaults are used, which describe
// the frontend build: JSX compiled for node 16.13, bundle.[contenthash].js
// emitted into built/, and a dev server on port 4200.
//
// The mode comes from NODE_ENV: exactly "production" selects production,
// anything else development. Values from .env files are layered under the
// process environment without modifying it.
//
//	cfg, err := loader.Load(loader.Options{Dir: "config", EnvFiles: []string{".env"}})
//	if errors.Is(err, compiler.ErrMalformedConfiguration) {
//		// declaration problem, with file:line:col in err.Error()
//	}
package loader
