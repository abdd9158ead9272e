// Package audio connects the glitch engine to the host: a speaker output on
// oto, MP3 decoding, a test tone source and raw s16le files.
package audio
