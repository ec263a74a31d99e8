package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainConfig separates configuration hashes from any other SHA-256 use.
// The version suffix allows the encoding to change later.
const DomainConfig = "buildspec/config/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical converts the configuration into a Value tree suitable for
// MarshalCanonical.
func (c *BuildConfig) Canonical() (Value, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return ParseJSON(raw)
}

// ConfigHash returns the content-addressed identity of a configuration.
// Structurally equal configurations always hash equally.
func ConfigHash(c *BuildConfig) (string, error) {
	v, err := c.Canonical()
	if err != nil {
		return "", fmt.Errorf("ConfigHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ConfigHash: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustConfigHash is like ConfigHash but panics on error.
// Use only in tests.
func MustConfigHash(c *BuildConfig) string {
	h, err := ConfigHash(c)
	if err != nil {
		panic(err)
	}
	return h
}
