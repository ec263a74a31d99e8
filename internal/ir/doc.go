// Package ir defines the loaded build configuration and its canonical form.
//
// ir imports nothing internal; every other package depends on it.
//
// Constraints:
//   - no float values anywhere; options use Int
//   - all JSON tags use snake_case
//   - ConfigHash is computed from RFC 8785 canonical JSON only
package ir
