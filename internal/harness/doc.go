// Package harness provides conformance testing for build declarations.
//
// A scenario loads one configuration under a fixed environment and asserts
// on the decisions it makes: the mode, which handler a file is routed to,
// how module requests expand, and what output filenames look like.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: css_rule
//	description: "CSS files go through the style pipeline"
//	declarations: ./decl          # omit for the embedded defaults
//	env: { NODE_ENV: production }
//	files: [src/App.jsx]
//	assertions:
//	  - type: mode
//	    expect: production
//	  - type: handler
//	    file: app.css
//	    handler: style-pipeline
//	  - type: no_handler
//	    file: README.md
//	  - type: candidates
//	    request: x
//	    candidates: [x.js, x.jsx]
//	  - type: resolves
//	    request: ./src/App
//	    expect: src/App.jsx
//	  - type: filename
//	    pattern: "bundle.[hash].js"
//	    hash_tokens: 1
//	    suffix: .js
//	  - type: order
//	    list: presets
//	    names: ["@babel/preset-env", "@babel/preset-react"]
//
// A scenario whose declarations are malformed uses load_error assertions
// only:
//
//	assertions:
//	  - type: load_error
//	    code: E104
//	    field: output.dir
//
// # Deterministic Testing
//
// Scenarios never read the process environment. Sessions use a fixed ID
// (scenario.session_id or "test-session-default") and a deterministic
// clock, and relative output paths resolve against /workspace unless the
// scenario sets root. Identical scenarios therefore produce identical
// snapshots for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/css_rule.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
