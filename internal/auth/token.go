package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a token without verifying it.
type TokenInfo struct {
	Format   string // "jwt" or "opaque"
	Subject  string
	IssuedAt time.Time
}

// InspectToken decodes JWT claims for display. The signature is not
// checked and the token is never rejected: anything unparsable is opaque.
func InspectToken(token string) TokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{Format: "opaque"}
	}

	info := TokenInfo{Format: "jwt", Subject: subjectFromClaims(claims)}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info
}

func subjectFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"user", "username", "name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	switch sub := claims["sub"].(type) {
	case string:
		return sub
	case float64:
		return fmt.Sprintf("user #%d", int64(sub))
	}
	return ""
}
