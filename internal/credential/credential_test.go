package credential

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/sdk"
)

const (
	testKey    = "devkey"
	testSecret = "devsecret-devsecret-devsecret-00"
)

func mint(t *testing.T, identity, name string) string {
	t.Helper()
	raw, err := Mint(MintConfig{
		APIKey:      testKey,
		APISecret:   testSecret,
		Identity:    identity,
		DisplayName: name,
		TTL:         time.Minute,
	})
	require.NoError(t, err)
	return raw
}

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func TestMintThenParse(t *testing.T) {
	raw := mint(t, "8:acs:alice", "Alice")

	tok, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "8:acs:alice", tok.Identity)
	assert.Equal(t, "Alice", tok.Name)
	assert.Equal(t, raw, tok.Raw)
	assert.Equal(t, sdk.CommunicationUser("8:acs:alice"), tok.Identifier())
	assert.WithinDuration(t, time.Now().Add(time.Minute), tok.ExpiresAt, 5*time.Second)
	assert.False(t, tok.Expired(time.Now()))
	assert.True(t, tok.Expired(tok.ExpiresAt))
}

func TestVerify(t *testing.T) {
	raw := mint(t, "alice", "Alice")

	tok, err := Verify(raw, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Identity)

	_, err = Verify(raw, "wrong-secret")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestExpiredToken(t *testing.T) {
	raw := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})

	_, err := Verify(raw, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	tok, err := Parse(raw)
	require.NoError(t, err, "parsing does not check expiry")
	assert.True(t, tok.Expired(time.Now()))
}

func TestRejectedTokens(t *testing.T) {
	_, err := Parse("  ")
	assert.ErrorIs(t, err, ErrEmptyToken)
	_, err = Verify("", testSecret)
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = Parse("not-a-jwt")
	assert.Error(t, err)

	noSubject := signed(t, Claims{Name: "Nobody"})
	_, err = Parse(noSubject)
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = Mint(MintConfig{APIKey: testKey, APISecret: testSecret})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestTokenWithoutExpiryNeverExpires(t *testing.T) {
	tok, err := Parse(signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}))
	require.NoError(t, err)

	assert.True(t, tok.ExpiresAt.IsZero())
	assert.False(t, tok.Expired(time.Now().Add(24*time.Hour)))
}

func TestStatic(t *testing.T) {
	cred := NewStatic("abc")
	got, err := cred.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = NewStatic("").Token(context.Background())
	assert.ErrorIs(t, err, ErrEmptyToken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cred.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
