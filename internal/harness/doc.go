// Package harness runs conformance scenarios against the synthesizer.
//
// A scenario names a profile and a set of parameters, and states what the
// generated topology and command sequence must look like:
//
//	name: tokens_only
//	description: Default fake-app run feeds the emulator from tokens
//	profile: fake-app
//	params:
//	  number_of_data_producers: 2
//	assertions:
//	  - type: inputs
//	    module: tde
//	    expect: [time_sync_source, token_source]
//
// Each run synthesizes the document, checks it against the CUE schema,
// records it in a fresh in-memory ledger and verifies the stored copy, then
// evaluates the assertions. Golden files pin the full canonical document.
//
// Scenarios can also expect a failure instead of a document:
//
//	expect_error: DIVISION_BY_ZERO
//
// In that case only the error category is checked.
package harness
