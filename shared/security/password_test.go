package security

import (
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHasher() *PasswordHasher {
	cfg := argon2.DefaultConfig()
	cfg.MemoryCost = 8 * 1024
	cfg.TimeCost = 1
	cfg.Parallelism = 1
	return NewPasswordHasher(cfg)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := testHasher()

	tests := []struct {
		name     string
		password string
	}{
		{"simple", "pw123456"},
		{"unicode", "пароль-密码-🔑"},
		{"empty", ""},
		{"long", "a-very-long-password-that-keeps-going-and-going-and-going-1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			digest, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, digest)
			assert.Contains(t, digest, "$argon2id$")

			assert.True(t, h.Verify(tt.password, digest))
			assert.False(t, h.Verify(tt.password+"x", digest))
		})
	}
}

func TestPasswordHasher_SaltIsRandom(t *testing.T) {
	t.Parallel()

	h := testHasher()

	first, err := h.Hash("pw123456")
	require.NoError(t, err)
	second, err := h.Hash("pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("pw123456", first))
	assert.True(t, h.Verify("pw123456", second))
}

func TestPasswordHasher_VerifyMalformedDigest(t *testing.T) {
	t.Parallel()

	h := testHasher()

	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=abc,t=1,p=1$$",
		"$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
	} {
		assert.False(t, h.Verify("pw123456", digest), "digest %q", digest)
	}
}

func TestPasswordHasher_VerifyUsesEmbeddedParameters(t *testing.T) {
	t.Parallel()

	digest, err := testHasher().Hash("pw123456")
	require.NoError(t, err)

	cfg := argon2.DefaultConfig()
	cfg.MemoryCost = 16 * 1024
	cfg.TimeCost = 2
	cfg.Parallelism = 1
	other := NewPasswordHasher(cfg)

	assert.True(t, other.Verify("pw123456", digest))
}

func TestPasswordHasher_HashUnusable(t *testing.T) {
	t.Parallel()

	h := testHasher()

	digest, err := h.HashUnusable()
	require.NoError(t, err)
	assert.False(t, h.Verify("", digest))
	assert.False(t, h.Verify("password", digest))
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	raw, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	assert.Equal(t, HashToken(raw), HashToken(raw))
	assert.NotEqual(t, raw, HashToken(raw))

	other, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
	assert.NotEqual(t, HashToken(raw), HashToken(other))
}

func TestPasswordHasher_VerifyAbsent(t *testing.T) {
	t.Parallel()

	h := testHasher()

	assert.False(t, h.VerifyAbsent("pw123456"))
	require.NotEmpty(t, h.decoy)

	raw, err := argon2.Decode([]byte(h.decoy))
	require.NoError(t, err)
	assert.Equal(t, h.config.MemoryCost, raw.Config.MemoryCost)
	assert.Equal(t, h.config.TimeCost, raw.Config.TimeCost)

	decoy := h.decoy
	assert.False(t, h.VerifyAbsent(""))
	assert.Equal(t, decoy, h.decoy, "the decoy digest is built once")
}
