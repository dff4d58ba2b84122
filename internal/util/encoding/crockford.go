// Package encoding renders opaque identifiers for humans.
package encoding

import (
	"strings"

	"github.com/google/uuid"
)

const crockfordBase32Alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// EncodeCrockfordB32LC encodes input with the lowercase Crockford base32
// alphabet, without padding. Trailing bits are zero-filled.
func EncodeCrockfordB32LC(input []byte) string {
	var sb strings.Builder

	sb.Grow((len(input)*8 + 4) / 5)

	var (
		bits  uint
		accum uint
	)

	for _, b := range input {
		accum = accum<<8 | uint(b)
		bits += 8

		for bits >= 5 {
			bits -= 5
			sb.WriteByte(crockfordBase32Alphabet[(accum>>bits)&0x1F])
		}

		accum &= 1<<bits - 1
	}

	if bits > 0 {
		sb.WriteByte(crockfordBase32Alphabet[(accum<<(5-bits))&0x1F])
	}

	return sb.String()
}

// NewID returns prefix followed by an encoded UUIDv7, so ids sort by
// creation time.
func NewID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return prefix + EncodeCrockfordB32LC(id[:]), nil
}
