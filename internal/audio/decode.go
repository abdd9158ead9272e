package audio

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes a whole MP3 stream to mono int16 and returns it with its
// sample rate. go-mp3 always yields interleaved stereo; the channels are
// averaged.
func DecodeMP3(r io.Reader) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	stereo := make([]int16, len(raw)/2)
	decodeLE(stereo, raw)
	return DownmixStereo(stereo), dec.SampleRate(), nil
}

// DownmixStereo averages interleaved left/right pairs. A trailing odd sample
// is dropped.
func DownmixStereo(interleaved []int16) []int16 {
	out := make([]int16, len(interleaved)/2)
	for i := range out {
		l := int32(interleaved[2*i])
		r := int32(interleaved[2*i+1])
		out[i] = int16((l + r) / 2)
	}
	return out
}
