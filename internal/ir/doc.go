// Package ir provides the command document model for trigconf.
//
// This package contains types and serialization only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Payloads are a sealed set of typed records, one per transition/module pair
//   - Queues are listed sorted by instance name, modules in declaration order
//   - All JSON keys use snake_case and are emitted in RFC 8785 order
//   - Canonical JSON is the only input to document hashes and golden files
package ir
