// FILENAME: internal/payload/payload.go
package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// MaxVariableLength is the exclusive upper bound of a variable-length draw.
const MaxVariableLength = 7000

var (
	// ErrInvalidArgument is returned for a negative fixed length or a nil source.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAllocation is returned when a drawn length cannot size a buffer.
	ErrAllocation = errors.New("allocation error")
)

// Payload is an opaque blob of random bytes.
// String applies the package's fixed decoding; Bytes exposes the raw form.
type Payload struct {
	raw []byte
}

// Bytes returns the raw bytes. The caller owns them.
func (p Payload) Bytes() []byte { return p.raw }

// Len is the byte count before decoding.
func (p Payload) Len() int { return len(p.raw) }

func (p Payload) String() string { return Decode(p.raw) }

// Hash is the hex SHA-256 of the raw bytes.
func (p Payload) Hash() string {
	sum := sha256.Sum256(p.raw)
	return hex.EncodeToString(sum[:])
}

// Variable draws a length in [0, MaxVariableLength) from src and fills that many bytes.
func Variable(src Source) (Payload, error) {
	if src == nil {
		return Payload{}, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	length := src.IntN(MaxVariableLength)
	if length < 0 || length >= MaxVariableLength {
		return Payload{}, fmt.Errorf("%w: drawn length %d outside [0, %d)", ErrAllocation, length, MaxVariableLength)
	}
	return fill(src, length), nil
}

// Fixed fills exactly length bytes from src.
func Fixed(src Source, length int) (Payload, error) {
	if src == nil {
		return Payload{}, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if length < 0 {
		return Payload{}, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, length)
	}
	return fill(src, length), nil
}

func fill(src Source, length int) Payload {
	if length == 0 {
		return Payload{raw: []byte{}}
	}
	buf := make([]byte, length)
	src.Fill(buf)
	return Payload{raw: buf}
}

// GenerateVariableLength returns a decoded variable-length payload.
func GenerateVariableLength(src Source) (string, error) {
	p, err := Variable(src)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// GenerateFixedLength returns a decoded payload of length raw bytes.
func GenerateFixedLength(src Source, length int) (string, error) {
	p, err := Fixed(src, length)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// Decode interprets b as UTF-8, substituting U+FFFD for each invalid byte.
// It never fails.
func Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
