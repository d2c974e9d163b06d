// Package harness provides scenario-driven conformance testing for the
// term pool.
//
// The harness loads YAML scenarios, executes a sequence of pool
// operations against a fresh pool, and validates the resulting trace and
// final pool state. Traces are deterministic, so scenarios double as
// golden-file fixtures.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: open_session
//	    session: s1
//	  - op: parse
//	    session: s1
//	    text: "f(1,2)"
//	    var: t1
//	  - op: apply
//	    session: s1
//	    symbol: g
//	    args: [t1]
//	    var: t2
//	  - op: collect
//	  - op: metrics
//	assertions:
//	  - type: term_text
//	    var: t2
//	    text: "g(f(1,2))"
//	  - type: pool_size
//	    count: 5
//
// # Step Operations
//
//   - open_session / close_session: manage named sessions
//   - parse, apply, list, int, string: create terms, binding them to vars
//   - release: drop a var's protection reference
//   - collect: run an explicit collection cycle
//   - metrics: record a pool occupancy snapshot in the trace
//
// A step with expect_error must fail with the named error code; the code
// is recorded in the trace instead of a term.
//
// # Assertion Types
//
//   - term_text: a var renders to the given text
//   - identical: all named vars are the same term record
//   - distinct: no two named vars share a record
//   - pool_size: the pool holds exactly count live terms
//
// # Deterministic Testing
//
// Every run uses a fresh pool with automatic collection disabled, so
// sizes and traces depend only on the step sequence. This keeps golden
// comparison stable across runs.
package harness
