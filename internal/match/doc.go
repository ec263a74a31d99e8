// Package match decides which transform rule handles a source file.
//
// Patterns come in two forms:
//
//   - Regex literals, written like "/\.css$/i". Any pattern that starts with
//     a slash is a regex literal; supported flags are i, m, s and u.
//     The expression is matched against the whole slash-separated path.
//   - Globs, anything else, evaluated with doublestar. A glob without a
//     slash ("*.css") matches the base name; a glob with a slash
//     ("src/**/*.js") matches the whole relative path.
//
// Rules are evaluated in declared order and the first rule whose test
// matches and whose exclusion does not wins.
package match
