package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// DefaultBcryptCost matches what existing deployments hashed with.
const DefaultBcryptCost = 10

// bcryptMaxPasswordLen is the longest input bcrypt accepts.
const bcryptMaxPasswordLen = 72

// PasswordHasher turns plaintext into a salted, self-describing hash string
// and checks plaintext against such a string. Verify reports a mismatch as
// false, never as an error.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > bcryptMaxPasswordLen {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, bcryptMaxPasswordLen)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Argon2idParams are the tunables encoded into every argon2id hash.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams follows the RFC 9106 second recommended option.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errInvalidHash = errors.New("invalid argon2id hash")

// Argon2idHasher produces $argon2id$v=19$m=..,t=..,p=..$salt$key strings.
type Argon2idHasher struct {
	params Argon2idParams
}

func NewArgon2idHasher(p Argon2idParams) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	salt := common.GenerateRandByteArray(int(h.params.SaltLength))
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Iterations, h.params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(plaintext, hash string) bool {
	p, salt, expected, err := decodeArgon2id(hash)
	if err != nil {
		return false
	}
	// refuse attacker-inflated parameters
	if p.MemoryKiB > h.params.MemoryKiB*2 || p.Iterations > h.params.Iterations*2 || p.Parallelism > h.params.Parallelism*2 {
		return false
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}

	var p Argon2idParams
	var par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &par); err != nil {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}
	p.Parallelism = uint8(par)

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return Argon2idParams{}, nil, nil, errInvalidHash
	}

	return p, salt, key, nil
}

// MultiHasher hashes with one algorithm and verifies any supported one,
// chosen from the hash prefix. This keeps old hashes valid after the
// configured algorithm changes.
type MultiHasher struct {
	primary  PasswordHasher
	bcrypt   *BcryptHasher
	argon2id *Argon2idHasher
}

// NewPasswordHasher builds a MultiHasher hashing with algorithm.
func NewPasswordHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	bh, err := NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err
	}
	ah := NewArgon2idHasher(DefaultArgon2idParams())

	m := &MultiHasher{bcrypt: bh, argon2id: ah}
	switch algorithm {
	case AlgorithmBcrypt, "":
		m.primary = bh
	case AlgorithmArgon2id:
		m.primary = ah
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *MultiHasher) Verify(plaintext, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(plaintext, hash)
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.argon2id.Verify(plaintext, hash)
	default:
		return false
	}
}
