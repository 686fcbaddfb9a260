// FILENAME: internal/payload/source.go
package payload

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/seehuhn/mt19937"
)

// ErrUnknownSource is returned when a source kind is not recognised.
var ErrUnknownSource = errors.New("unknown randomness source")

// Source kinds accepted by NewSource.
const (
	KindPCG     = "pcg"
	KindChaCha8 = "chacha8"
	KindMT19937 = "mt19937"
	KindCrypto  = "crypto"
)

// Kinds lists every source kind NewSource understands.
var Kinds = []string{KindPCG, KindChaCha8, KindMT19937, KindCrypto}

// Source is the randomness consumed by the generators.
// It is not safe for concurrent use unless the implementation says so.
type Source interface {
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int
	// Fill overwrites p with random bytes.
	Fill(p []byte)
}

type rngSource struct {
	rng *rand.Rand
	// raw is the underlying generator when it can stream bytes directly.
	raw io.Reader
}

func (s *rngSource) IntN(n int) int { return s.rng.IntN(n) }

func (s *rngSource) Fill(p []byte) {
	if s.raw != nil {
		_, _ = io.ReadFull(s.raw, p)
		return
	}
	fillUint64(s.rng, p)
}

// fillUint64 packs successive Uint64 draws little-endian into p.
func fillUint64(r *rand.Rand, p []byte) {
	var buf [8]byte
	for len(p) > 0 {
		binary.LittleEndian.PutUint64(buf[:], r.Uint64())
		n := copy(p, buf[:])
		p = p[n:]
	}
}

// NewSource resolves a source kind and seeds it.
// The crypto kind ignores the seed and is not reproducible.
func NewSource(kind string, seed uint64) (Source, error) {
	switch kind {
	case KindPCG, "":
		return FromRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))), nil
	case KindChaCha8:
		c := rand.NewChaCha8(chachaSeed(seed))
		return &rngSource{rng: rand.New(c), raw: c}, nil
	case KindMT19937:
		mt := mt19937.New()
		mt.Seed(int64(seed))
		return &rngSource{rng: rand.New(mt), raw: mt}, nil
	case KindCrypto:
		return &rngSource{rng: rand.New(cryptoSource{}), raw: crand.Reader}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

// FromRand adapts a caller-owned generator.
func FromRand(r *rand.Rand) Source {
	return &rngSource{rng: r}
}

// chachaSeed expands a 64-bit seed into the 32-byte ChaCha8 key.
func chachaSeed(seed uint64) [32]byte {
	var key [32]byte
	pcg := rand.New(rand.NewPCG(seed, 0))
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint64(key[i*8:], pcg.Uint64())
	}
	return key
}

type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
