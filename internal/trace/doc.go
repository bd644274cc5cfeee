// Package trace records what the compiler is doing: driver steps, passes
// and per-file work, so slow or stuck builds can be diagnosed.
//
// # Usage
//
//	tmplc compile --trace=- --trace-level=unit templates/
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelPhase: driver and pass boundaries
//   - LevelUnit: per-file events
//   - LevelDebug: everything
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", parentID)
//	defer span.End("")
package trace
