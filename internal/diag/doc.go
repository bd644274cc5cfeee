// Package diag defines the diagnostic model shared by every compiler phase.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier (codes.go) with a stable string form
//     such as SYN2110.
//   - Message – short human text.
//   - Primary – source.Location of the problem.
//   - Text – the offending raw text, verbatim, when the producer has it.
//   - Notes – optional secondary locations.
//
// Producers declare reusable Kind values (code + severity + format) and emit
// them with Emit.
//
// # Accumulation
//
// Phases never stop on the first user error. They report into an
// ErrorReporter; node builders take a Checkpoint before validating and call
// ErrorsSince afterwards to decide between a real node and the sentinel
// error node. BagReporter stores into a bounded Bag, DedupReporter filters
// repeats, MultiReporter fans out.
//
// # Fail-fast
//
// ExplodingReporter panics with *Failure on the first error. It is meant for
// input that cannot be wrong unless the compiler itself is: sentinels built at
// package init, generated text, tests. ThrowingReporter collects and turns the
// errors into a Go error at a boundary.
//
// Rendering lives in internal/diagfmt.
package diag
