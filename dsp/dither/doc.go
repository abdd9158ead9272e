// Package dither converts processed float output to 16-bit PCM with
// optional dither noise and error-feedback noise shaping.
//
// The engine itself stores reduced-width samples by truncation; dither only
// applies where a float signal leaves the process as int16.
package dither
