package kittyimg

import (
	"encoding/base64"
)

// ChunkSize is the number of base64 characters sent per inline escape sequence
const ChunkSize = 256

// Chunk is one slice of a base64 payload
type Chunk struct {
	Data string
	// More is true on every chunk but the last one (m=1)
	More bool
}

// Chunks base64 encodes payload and splits it into size character chunks.
// An empty payload yields no chunks.
func Chunks(payload []byte, size int) []Chunk {
	if size <= 0 {
		size = ChunkSize
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	numChunks := (len(encoded) + size - 1) / size
	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < len(encoded); i += size {
		end := min(i+size, len(encoded))
		chunks = append(chunks, Chunk{
			Data: encoded[i:end],
			More: end < len(encoded),
		})
	}
	return chunks
}

// flag renders More as the protocol's m value
func (c Chunk) flag() int {
	if c.More {
		return 1
	}
	return 0
}
