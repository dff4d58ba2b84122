package authsvc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mkrupp/shopzone/internal/util/flock"
)

const (
	pkcs8KeyType = "PRIVATE KEY"
	pkcs1KeyType = "RSA PRIVATE KEY"
)

// DefaultKeySize is the RSA key size used for generated signing keys.
const DefaultKeySize = 2048

var ErrInvalidSigningKey = errors.New("invalid signing key")

// DecodePrivateKey reads a PEM encoded RSA key in PKCS#8 or PKCS#1 form.
func DecodePrivateKey(key io.Reader) (*rsa.PrivateKey, error) {
	buf, err := io.ReadAll(key)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	block, _ := pem.Decode(buf)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidSigningKey)
	}

	switch block.Type {
	case pkcs1KeyType:
		privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs1 key: %w", err)
		}

		return privateKey, nil
	case pkcs8KeyType:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs8 key: %w", err)
		}

		privateKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an RSA key", ErrInvalidSigningKey, parsed)
		}

		return privateKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidSigningKey, block.Type)
	}
}

// GeneratePrivateKey creates a new RSA key of the given size.
func GeneratePrivateKey(bits int) (*rsa.PrivateKey, error) {
	signingKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return signingKey, nil
}

// EncodePrivateKey encodes key as a PKCS#8 PEM block.
func EncodePrivateKey(signingKey *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(signingKey)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	//nolint:exhaustruct
	return pem.EncodeToMemory(&pem.Block{Type: pkcs8KeyType, Bytes: der}), nil
}

// GetPrivateKey loads the key at path, generating and saving a new one when
// the file does not exist yet.
func GetPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyFile, err := os.Open(path)
	if err == nil {
		defer keyFile.Close()

		signingKey, err := DecodePrivateKey(keyFile)
		if err != nil {
			return nil, fmt.Errorf("decode private key: %w", err)
		}

		return signingKey, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open key file: %w", err)
	}

	signingKey, err := GeneratePrivateKey(DefaultKeySize)
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}

	keyBytes, err := EncodePrivateKey(signingKey)
	if err != nil {
		return nil, fmt.Errorf("encode private key: %w", err)
	}

	if err := flock.WriteFileAtomic(path, keyBytes, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return signingKey, nil
}
