// Package glitch implements the multi-head playback engine of a glitch delay.
//
// An [Effect] records a live signal into a [delay.Buffer] and plays it back
// through a fixed set of [PlayHead]s. Each head either taps the buffer at a
// fixed distance behind the write position (free run) or repeats a loop
// window that is re-placed relative to the write position every cycle.
// Loop size, speed and jitter changes only take effect at a loop boundary,
// and every boundary is hidden behind a short crossfade.
//
// Parameters reach the engine asynchronously: setters may be called from any
// goroutine and only stage a new parameter snapshot. [Effect.Commit] applies
// the latest snapshot and must be called by the goroutine that runs
// ProcessInput and ProcessOutput, between blocks. The audio path itself
// never locks, blocks or allocates.
package glitch
