// Package interp provides the interpolation and crossfade primitives used by
// the glitch playback heads.
//
// Available kernels:
//
//   - [Linear2]:     2-point linear interpolation on floats
//   - [LinearInt16]: 2-point linear interpolation on fixed-point samples
//
// Crossfade weighting is selected with [Curve]: [CurveLinear] keeps the sum of
// both weights at one, [CurveEqualPower] keeps the sum of their squares at one.
package interp
