// Package synth builds the topology and lifecycle command sequence for the
// trigger emulator test application.
//
// Synthesis is a pure transform: toggles and a producer count select the
// modules and queues (BuildTopology), timing parameters and a run number
// fill in the per-module payloads (BuildCommandSequence). Identical inputs
// always produce byte-identical documents.
//
// The generator has three profiles. fake-app drops the trigger decision
// emulator when it has no inhibit or token input; standalone keeps it and
// disables tokens by default; lifecycle stamps every command with its
// entry and exit states and forwards the trigger interval at start.
package synth
