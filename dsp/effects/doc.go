// Package effects wraps the int16 glitch engine as a float64 effect.
//
// GlitchDelay mixes the three play heads with per-head gains, blends the
// result with the dry signal and feeds part of the wet signal back into the
// store. It processes in place with a zero-allocation hot path, like the
// rest of the dsp tree.
package effects
