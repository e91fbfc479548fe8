package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
)

const startDeepLinkPrefix = "access_"

// tokenShape matches long URL-safe strings. Syntactic plausibility only;
// it says nothing about whether the token exists.
var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]{24,128}$`)

// IsLikelyToken reports whether the trimmed text looks like an access token.
func IsLikelyToken(text string) bool {
	return tokenShape.MatchString(strings.TrimSpace(text))
}

// ExtractTokenFromText pulls an access token out of a bot message.
// Supports "/start access_<token>" deep links and plain token text.
func ExtractTokenFromText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/start") {
		parts := strings.Fields(trimmed)
		if len(parts) > 1 && strings.HasPrefix(parts[1], startDeepLinkPrefix) {
			token := strings.TrimPrefix(parts[1], startDeepLinkPrefix)
			if IsLikelyToken(token) {
				return token, true
			}
		}
		return "", false
	}

	if IsLikelyToken(trimmed) {
		return trimmed, true
	}
	return "", false
}

// HashToken returns the hex SHA-256 digest of a token. Grants store this
// digest instead of the raw secret.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewAccessToken issues a fresh 32-character URL-safe token.
func NewAccessToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
