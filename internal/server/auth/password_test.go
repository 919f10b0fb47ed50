package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testArgon2idParams() Argon2idParams {
	return Argon2idParams{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashers_RoundTrip(t *testing.T) {
	t.Parallel()

	bh, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hashers := map[string]PasswordHasher{
		"bcrypt":   bh,
		"argon2id": NewArgon2idHasher(testArgon2idParams()),
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h1, err := h.Hash("secret123")
			require.NoError(t, err)
			h2, err := h.Hash("secret123")
			require.NoError(t, err)

			assert.NotEqual(t, "secret123", h1)
			assert.NotEqual(t, h1, h2, "hashes must be salted")

			assert.True(t, h.Verify("secret123", h1))
			assert.True(t, h.Verify("secret123", h2))
			assert.False(t, h.Verify("wrongpass", h1))
			assert.False(t, h.Verify("", h1))
			assert.False(t, h.Verify("secret123", "garbage"))
			assert.False(t, h.Verify("secret123", ""))
		})
	}
}

func TestBcryptHasher_Cost(t *testing.T) {
	t.Parallel()

	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)

	h, err := NewBcryptHasher(5)
	require.NoError(t, err)
	hash, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()

	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.True(t, errors.Is(err, common.ErrorValidation))

	_, err = h.Hash(strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestArgon2idHasher_Format(t *testing.T) {
	t.Parallel()

	h := NewArgon2idHasher(testArgon2idParams())
	hash, err := h.Hash("pw")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)
	assert.Len(t, strings.Split(hash, "$"), 6)
}

func TestArgon2idHasher_RejectsInflatedParams(t *testing.T) {
	t.Parallel()

	strong := NewArgon2idHasher(Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	hash, err := strong.Hash("pw")
	require.NoError(t, err)

	weak := NewArgon2idHasher(testArgon2idParams())
	assert.False(t, weak.Verify("pw", hash))
}

func TestArgon2idHasher_Malformed(t *testing.T) {
	t.Parallel()

	h := NewArgon2idHasher(testArgon2idParams())
	for _, s := range []string{
		"$argon2id$v=19$m=1024,t=1,p=1$$",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
		"argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
	} {
		assert.False(t, h.Verify("pw", s), s)
	}
}

func TestNewPasswordHasher(t *testing.T) {
	t.Parallel()

	_, err := NewPasswordHasher("md5", DefaultBcryptCost)
	assert.Error(t, err)
	_, err = NewPasswordHasher(AlgorithmBcrypt, 99)
	assert.Error(t, err)

	bm, err := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	bhash, err := bm.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bhash, "$2a$"))

	am, err := NewPasswordHasher(AlgorithmArgon2id, bcrypt.MinCost)
	require.NoError(t, err)
	ahash, err := am.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ahash, "$argon2id$"))

	// either hasher verifies hashes produced by the other algorithm
	assert.True(t, am.Verify("pw", bhash))
	assert.True(t, bm.Verify("pw", ahash))
	assert.False(t, bm.Verify("pw", "$1$legacy"))
}
