// Package delay implements the fixed-capacity circular sample store that the
// glitch playback heads read from.
//
// The store keeps int16 samples bit-packed at a runtime-selectable width
// (4, 8, 12 or 16 bits) inside a constant number of bytes, so lowering the
// bit depth both coarsens the signal and lengthens the available history.
// Every position is computed through [Ring], which wraps integer and
// fractional indices in both directions; positions handed out by the store
// are always expressed relative to the write position and therefore never
// refer to a sample that has not been written yet.
//
// A Buffer has a single writer and is not safe for concurrent use. Write,
// Read and the position helpers do not allocate.
package delay
