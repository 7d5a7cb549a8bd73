package pinhash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Supported algorithms
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmPBKDF2 = "pbkdf2"
)

const (
	pbkdf2Prefix      = "pbkdf2-sha256"
	pbkdf2SaltBytes   = 16
	pbkdf2KeyBytes    = 32
	DefaultIterations = 210000
)

// Hasher turns PINs into stored digests and checks attempts against them
type Hasher interface {
	Digest(pin string) (string, error)
	Verify(pin, stored string) bool
}

// New returns the hasher for algorithm; iterations only apply to pbkdf2
func New(algorithm string, iterations int) (Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmSHA256:
		return SHA256{}, nil
	case AlgorithmPBKDF2:
		if iterations <= 0 {
			iterations = DefaultIterations
		}
		return PBKDF2{Iterations: iterations}, nil
	default:
		return nil, fmt.Errorf("unknown pin hash algorithm %q", algorithm)
	}
}

// SHA256 is the unsalted hex digest, kept for existing data
type SHA256 struct{}

// Digest returns the lowercase hex sha256 of pin
func (SHA256) Digest(pin string) (string, error) {
	return sha256Hex(pin), nil
}

// Verify checks pin against any supported stored format
func (SHA256) Verify(pin, stored string) bool {
	return verify(pin, stored)
}

// PBKDF2 stores pbkdf2-sha256$<iterations>$<salt-hex>$<key-hex>
type PBKDF2 struct {
	Iterations int
}

// Digest derives a salted key from pin
func (h PBKDF2) Digest(pin string) (string, error) {
	salt := make([]byte, pbkdf2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(pin), salt, h.Iterations, pbkdf2KeyBytes, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s", pbkdf2Prefix, h.Iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify checks pin against any supported stored format
func (PBKDF2) Verify(pin, stored string) bool {
	return verify(pin, stored)
}

func sha256Hex(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// verify detects the stored format so both kinds can live in one table
func verify(pin, stored string) bool {
	if !strings.HasPrefix(stored, pbkdf2Prefix+"$") {
		return subtle.ConstantTimeCompare([]byte(sha256Hex(pin)), []byte(strings.ToLower(stored))) == 1
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(pin), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
