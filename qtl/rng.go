package qtl

import (
	"encoding/binary"

	"github.com/aead/chacha20/chacha"
	"github.com/hhcho/frand"
)

const rngBufferSize = 1024

// NewRNG builds a deterministic chacha-backed random stream from a run seed.
// Every resampling step in this package draws from such a stream, so a fixed
// seed reproduces results exactly.
func NewRNG(seed uint64) *frand.RNG {
	key := make([]byte, chacha.KeySize)
	binary.LittleEndian.PutUint64(key, seed)
	return frand.NewCustom(key, rngBufferSize, 20)
}
