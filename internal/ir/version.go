package ir

// Version constants for the configuration schema and the loader.
const (
	// IRVersion is the BuildConfig schema version.
	IRVersion = "1"

	// LoaderVersion is the buildspec loader version.
	LoaderVersion = "0.1.0"
)
