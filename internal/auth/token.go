package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenCodec issues and decodes bearer tokens of the form
// base64(userId ":" secret).
//
// Without a signing key the secret segment is opaque and never checked, so
// any token naming an active user id is accepted. With a signing key the
// secret must be the hex HMAC-SHA256 of the user id.
type TokenCodec struct {
	signingKey []byte
}

// NewTokenCodec creates a codec. An empty signingKey selects unsigned tokens.
func NewTokenCodec(signingKey string) *TokenCodec {
	c := &TokenCodec{}
	if signingKey != "" {
		c.signingKey = []byte(signingKey)
	}
	return c
}

// Signed reports whether the codec verifies the secret segment.
func (c *TokenCodec) Signed() bool {
	return len(c.signingKey) > 0
}

// Issue returns a new token for the given user id.
func (c *TokenCodec) Issue(userID int64) (string, error) {
	id := strconv.FormatInt(userID, 10)

	var secret string
	if c.Signed() {
		secret = c.sign(id)
	} else {
		b := make([]byte, 20)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generating token secret: %w", err)
		}
		secret = hex.EncodeToString(b)
	}

	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret)), nil
}

// Decode extracts the user id from a raw token (without the Bearer prefix).
func (c *TokenCodec) Decode(raw string) (int64, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: decoding base64: %w", ErrTokenVerification, err)
		}
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) < 2 {
		return 0, ErrMalformedToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrMalformedToken
	}

	if c.Signed() && !hmac.Equal([]byte(parts[1]), []byte(c.sign(parts[0]))) {
		return 0, ErrMalformedToken
	}

	return userID, nil
}

func (c *TokenCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.signingKey)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// StripBearer removes a literal leading "Bearer " from an Authorization value.
func StripBearer(header string) string {
	return strings.TrimPrefix(header, bearerPrefix)
}
