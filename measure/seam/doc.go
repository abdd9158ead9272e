// Package seam measures how audible the edits in a rendered signal are.
//
// Loop wraps, head jumps and crossfades all leave the same fingerprints: a
// large sample-to-sample step and energy pushed into the top of the
// spectrum. Analyze reports both, plus the overall RMS, so renders with
// different settings can be compared.
package seam
