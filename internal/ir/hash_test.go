package ir

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() *BuildConfig {
	return &BuildConfig{
		Target: Target{Runtime: "node", Version: "16.13"},
		Presets: []Preset{
			{Name: "@babel/preset-env"},
			{Name: "@babel/preset-react", Options: Object{"runtime": String("automatic")}},
		},
		Plugins: []Plugin{{Name: "@babel/plugin-transform-runtime"}},
		Entry:   "./src/index.js",
		Output: Output{
			Dir:        "/srv/app/built",
			Filename:   "bundle.[contenthash].js",
			Clean:      true,
			PublicPath: "/",
		},
		Resolve: Resolve{Extensions: []string{".js", ".jsx"}},
		Rules: []Rule{
			{Test: `/\.(js|jsx)$/`, Exclude: "/node_modules/", Handler: "babel-loader"},
		},
		DevServer: DevServer{HistoryFallback: true, Port: 4200, Open: true},
		Mode:      ModeDevelopment,
	}
}

func TestConfigHashFormat(t *testing.T) {
	h, err := ConfigHash(sampleConfig())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), h)
}

func TestConfigHashDeterministic(t *testing.T) {
	a := MustConfigHash(sampleConfig())
	b := MustConfigHash(sampleConfig())
	assert.Equal(t, a, b)
}

func TestConfigHashSensitiveToOrder(t *testing.T) {
	cfg := sampleConfig()
	swapped := sampleConfig()
	swapped.Presets[0], swapped.Presets[1] = swapped.Presets[1], swapped.Presets[0]

	assert.NotEqual(t, MustConfigHash(cfg), MustConfigHash(swapped))
}

func TestConfigHashSensitiveToMode(t *testing.T) {
	prod := sampleConfig()
	prod.Mode = ModeProduction

	assert.NotEqual(t, MustConfigHash(sampleConfig()), MustConfigHash(prod))
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"entry":"x"}`)
	assert.NotEqual(t, hashWithDomain(DomainConfig, data), hashWithDomain("other/v1", data))
}
