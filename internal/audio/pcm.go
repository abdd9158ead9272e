package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadPCM reads a raw little-endian 16-bit mono stream to the end.
func ReadPCM(r io.Reader) ([]int16, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("read pcm: odd byte count %d", len(raw))
	}

	out := make([]int16, len(raw)/2)
	decodeLE(out, raw)
	return out, nil
}

// WritePCM writes samples as raw little-endian 16-bit mono.
func WritePCM(w io.Writer, samples []int16) error {
	bw := bufio.NewWriter(w)
	var b [2]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		if _, err := bw.Write(b[:]); err != nil {
			return fmt.Errorf("write pcm: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write pcm: %w", err)
	}
	return nil
}
