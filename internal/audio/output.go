package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Output plays mono int16 blocks on the default device. Write blocks until
// the device has room, which paces the caller at the sample rate. Write must
// be called from one goroutine; Close may be called from another to unblock
// it.
type Output struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	buf        []byte
	closeOnce  sync.Once
	closeErr   error
}

// NewOutput opens the device. oto allows one context per process, so only
// one Output may exist at a time.
func NewOutput(sampleRate int) (*Output, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("output sample rate must be > 0: %d", sampleRate)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	o := &Output{otoCtx: ctx, sampleRate: sampleRate}
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()

	log.Printf("audio output initialized: %d Hz mono", sampleRate)
	return o, nil
}

// SampleRate returns the device rate.
func (o *Output) SampleRate() int { return o.sampleRate }

// Write queues samples for playback. After Close it returns an error
// wrapping io.ErrClosedPipe.
func (o *Output) Write(samples []int16) error {
	if cap(o.buf) < 2*len(samples) {
		o.buf = make([]byte, 2*len(samples))
	}
	out := o.buf[:2*len(samples)]
	encodeLE(out, samples)

	if _, err := o.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close stops playback and releases the device. Later calls are no-ops.
func (o *Output) Close() error {
	o.closeOnce.Do(func() {
		o.pipeReader.Close()
		o.pipeWriter.Close()
		if err := o.player.Close(); err != nil {
			log.Printf("audio player close: %v", err)
		}
		if err := o.otoCtx.Suspend(); err != nil {
			o.closeErr = fmt.Errorf("failed to suspend oto context: %w", err)
		}
	})
	return o.closeErr
}

func encodeLE(dst []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(s))
	}
}

func decodeLE(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[2*i:]))
	}
}
