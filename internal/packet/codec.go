package packet

import "math"

// Field values travel as 16-bit big-endian integers. Decimal values are
// fixed-point with two digits of precision: the wire carries round(v*100),
// so the usable range is [-327.67, 327.67]. Values scaled outside int16
// wrap silently; keeping sensor ranges inside the window is the caller's
// problem.

func (b *Buffer) WriteTag(tag byte) {
	b.Write(tag)
}

func (b *Buffer) WriteInt16(v int16) {
	b.Write(byte(uint16(v) >> 8))
	b.Write(byte(uint16(v)))
}

func (b *Buffer) WriteDecimal(v float64) {
	b.WriteInt16(int16(int32(math.Round(v * 100))))
}

func (b *Buffer) ReadTag() byte {
	return b.Read()
}

func (b *Buffer) ReadInt16() int16 {
	hi := b.Read()
	lo := b.Read()
	return int16(uint16(hi)<<8 | uint16(lo))
}

func (b *Buffer) ReadDecimal() float64 {
	return float64(b.ReadInt16()) / 100.0
}
