package delay

// Supported storage widths in bits, narrowest first.
var supportedBitDepths = [...]int{4, 8, 12, 16}

const (
	minBitDepth = 4
	maxBitDepth = 16

	// capacityQuantum is the smallest byte count that holds a whole number
	// of samples at every supported width.
	capacityQuantum = 6
)

// SupportedBitDepths returns the storage widths the store can be set to.
func SupportedBitDepths() []int {
	out := make([]int, len(supportedBitDepths))
	copy(out, supportedBitDepths[:])
	return out
}

// NearestBitDepth clamps bits to the closest supported width. Ties resolve
// to the wider width.
func NearestBitDepth(bits int) int {
	if bits <= minBitDepth {
		return minBitDepth
	}
	if bits >= maxBitDepth {
		return maxBitDepth
	}
	best := maxBitDepth
	bestDist := maxBitDepth
	for i := len(supportedBitDepths) - 1; i >= 0; i-- {
		d := bits - supportedBitDepths[i]
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = supportedBitDepths[i], d
		}
	}
	return best
}

func isSupportedBitDepth(bits int) bool {
	for _, b := range supportedBitDepths {
		if b == bits {
			return true
		}
	}
	return false
}

// Quantize returns the value a sample takes after being stored at the given
// width: the top bits are kept and the rest are truncated toward negative
// infinity.
func Quantize(s int16, bits int) int16 {
	shift := 16 - bits
	return (s >> shift) << shift
}

// packer reads and writes fixed-width fields in a little-endian bit stream.
// Fields never straddle more than two bytes because every width is a
// multiple of four bits.
type packer struct {
	bits  int
	shift uint
	mask  uint16
}

func newPacker(bits int) packer {
	return packer{
		bits:  bits,
		shift: uint(16 - bits),
		mask:  uint16(uint32(1)<<bits - 1),
	}
}

// elements returns how many samples fit in capacity bytes.
func (p packer) elements(capacity int) int {
	return ElementsFor(capacity, p.bits)
}

// ElementsFor returns how many samples capacityBytes holds at bits per
// sample.
func ElementsFor(capacityBytes, bits int) int {
	if bits <= 0 {
		return 0
	}
	return capacityBytes * 8 / bits
}

// put stores s at element index i. data must have one byte of padding past
// the packed region.
func (p packer) put(data []byte, i int, s int16) {
	bit := i * p.bits
	off := bit >> 3
	sh := uint(bit & 7)

	field := uint16(s) >> p.shift
	mask := p.mask << sh
	word := uint16(data[off]) | uint16(data[off+1])<<8
	word = word&^mask | field<<sh&mask
	data[off] = byte(word)
	data[off+1] = byte(word >> 8)
}

// get loads the sample at element index i.
func (p packer) get(data []byte, i int) int16 {
	bit := i * p.bits
	off := bit >> 3
	sh := uint(bit & 7)

	word := uint16(data[off]) | uint16(data[off+1])<<8
	field := word >> sh & p.mask
	return int16(field << p.shift)
}
