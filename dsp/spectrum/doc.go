// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package does not implement an FFT. It operates on complex bins
// produced by an FFT backend and offers power extraction and band sums.
package spectrum
