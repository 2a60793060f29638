package rbtree

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Block tags. LZ4 refuses to emit a block that does not shrink the input,
// so such columns are stored raw.
const (
	blockRaw byte = iota
	blockLZ4
)

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
// Returns nil for an empty slice.
func CompressUInt32Slice(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}

	raw := make([]byte, len(data)*uint32ByteSize)
	for idx, value := range data {
		binary.LittleEndian.PutUint32(raw[idx*uint32ByteSize:], value)
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err != nil || written == 0 {
		return append([]byte{blockRaw}, raw...)
	}

	compressed[0] = blockLZ4

	return compressed[:1+written]
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously compressed with
// CompressUInt32Slice. `result` must be preallocated with the original length.
func DecompressUInt32Slice(data []byte, result []uint32) {
	if len(result) == 0 {
		return
	}

	doAssert(len(data) > 0)

	raw := data[1:]

	if data[0] == blockLZ4 {
		raw = make([]byte, len(result)*uint32ByteSize)

		read, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			panic("corrupted LZ4 block: " + err.Error())
		}

		doAssert(read == len(raw))
	}

	doAssert(len(raw) == len(result)*uint32ByteSize)

	for idx := range result {
		result[idx] = binary.LittleEndian.Uint32(raw[idx*uint32ByteSize:])
	}
}
