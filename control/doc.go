// Package control maps a front panel onto the glitch engine.
//
// A Surface exposes axes, buttons and indicators by ID. Panel is the
// in-memory Surface shared by the terminal UI, offline renders and tests.
// Controller reads the surface once per control tick, stages the values on
// the engine and commits them between audio blocks.
package control
