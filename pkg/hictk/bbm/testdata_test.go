package bbm

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"
)

// fileBuilder assembles a synthetic BBM byte stream field-by-field, used
// by the header and block decoder tests below. It mirrors the manual
// binary_writer.go style the teacher uses for its own wire format.
type fileBuilder struct {
	buf bytes.Buffer
}

func (b *fileBuilder) bytes() []byte { return b.buf.Bytes() }
func (b *fileBuilder) len() int64    { return int64(b.buf.Len()) }

func (b *fileBuilder) raw(p []byte)   { b.buf.Write(p) }
func (b *fileBuilder) u8(v uint8)     { b.buf.WriteByte(v) }
func (b *fileBuilder) boolean(v bool) { b.u8(map[bool]uint8{true: 1, false: 0}[v]) }
func (b *fileBuilder) i16(v int16)    { b.u16(uint16(v)) }
func (b *fileBuilder) u16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
}
func (b *fileBuilder) i32(v int32) { b.u32(uint32(v)) }
func (b *fileBuilder) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}
func (b *fileBuilder) i64(v int64) { b.u64(uint64(v)) }
func (b *fileBuilder) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
}
func (b *fileBuilder) f32(v float32) { b.u32(math.Float32bits(v)) }
func (b *fileBuilder) f64(v float64) { b.u64(math.Float64bits(v)) }
func (b *fileBuilder) cstr(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}

// zlibCompress wraps payload the same way the BBM writer that produced
// the reference fixtures does.
func zlibCompress(payload []byte) []byte {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	w.Write(payload)
	w.Close()
	return out.Bytes()
}
