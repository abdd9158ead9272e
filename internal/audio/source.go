package audio

import (
	"fmt"
	"io"
	"math"
)

// Source yields mono int16 samples block by block.
type Source interface {
	// Read fills dst and returns the number of samples written. A finite
	// source returns io.EOF once exhausted.
	Read(dst []int16) (int, error)
}

// Tone is an endless sine source with an optional on/off gate, so loops
// and jumps in the delay are easy to hear. The same settings always
// produce the same samples.
type Tone struct {
	step      float64
	amplitude float64
	gateOn    int
	gatePer   int
	n         int
}

// NewTone returns a sine of freqHz at the given peak amplitude in (0, 1].
func NewTone(freqHz, sampleRate, amplitude float64) (*Tone, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("tone sample rate must be > 0: %f", sampleRate)
	}
	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return nil, fmt.Errorf("tone frequency must be in (0, %g): %f", sampleRate/2, freqHz)
	}
	if amplitude <= 0 || amplitude > 1 {
		return nil, fmt.Errorf("tone amplitude must be in (0, 1]: %f", amplitude)
	}
	return &Tone{
		step:      2 * math.Pi * freqHz / sampleRate,
		amplitude: amplitude * math.MaxInt16,
	}, nil
}

// Gate sounds the tone for on samples out of every period. period <= 0
// removes the gate.
func (t *Tone) Gate(on, period int) {
	if period <= 0 || on >= period {
		t.gateOn, t.gatePer = 0, 0
		return
	}
	t.gateOn, t.gatePer = max(on, 0), period
}

// Read implements Source.
func (t *Tone) Read(dst []int16) (int, error) {
	for i := range dst {
		v := t.amplitude * math.Sin(t.step*float64(t.n))
		if t.gatePer > 0 && t.n%t.gatePer >= t.gateOn {
			v = 0
		}
		dst[i] = int16(math.Round(v))
		t.n++
	}
	return len(dst), nil
}

// Samples is a finite Source over a decoded clip. With Loop set it restarts
// instead of ending.
type Samples struct {
	data []int16
	pos  int
	Loop bool
}

// NewSamples wraps data without copying.
func NewSamples(data []int16, loop bool) *Samples {
	return &Samples{data: data, Loop: loop}
}

// Read implements Source.
func (s *Samples) Read(dst []int16) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(dst) {
		if s.pos == len(s.data) {
			if !s.Loop {
				break
			}
			s.pos = 0
		}
		c := copy(dst[n:], s.data[s.pos:])
		n += c
		s.pos += c
	}
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

// ReadFull fills dst from src, padding with silence after io.EOF. It reports
// whether any source samples were read.
func ReadFull(src Source, dst []int16) (bool, error) {
	n, err := src.Read(dst)
	clear(dst[n:])
	if err == io.EOF {
		return n > 0, nil
	}
	return n > 0, err
}
