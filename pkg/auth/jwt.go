// Package auth reads the bearer tokens the storefront backend issues.
//
// The backend signs tokens; the client only needs the claims. Decode skips
// signature verification unless a secret is configured, in which case the
// token must be a valid HS256 token for that secret.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names used by the ASP.NET identity stack behind the backend.
const (
	ClaimRole       = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	ClaimEmail      = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	ClaimCartID     = "CartId"
	claimRoleShort  = "role"
	claimEmailShort = "email"
)

// ErrMalformed wraps every decode failure.
var ErrMalformed = errors.New("auth: malformed token")

// Claims is the typed view of a login token.
type Claims struct {
	Email     string
	Role      string
	CartID    *int
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Expired reports whether the token carries an expiry in the past.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Decode parses token. With an empty secret the signature is not checked.
func Decode(token, secret string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		_, err := jwt.ParseWithClaims(token, mc, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return fromMap(mc), nil
}

// Sign issues an HS256 token over claims. The backend owns real issuance;
// this exists for fixtures and local tooling.
func Sign(claims map[string]interface{}, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims)).SignedString([]byte(secret))
}

func fromMap(mc jwt.MapClaims) *Claims {
	c := &Claims{Raw: mc}
	c.Role = roleOf(mc[ClaimRole])
	if c.Role == "" {
		c.Role = roleOf(mc[claimRoleShort])
	}
	c.Email = stringOf(mc[claimEmailShort])
	if c.Email == "" {
		c.Email = stringOf(mc[ClaimEmail])
	}
	if id, ok := intOf(mc[ClaimCartID]); ok {
		c.CartID = &id
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

// roleOf accepts a single role or a list; "Admin" wins when listed.
func roleOf(v interface{}) string {
	switch r := v.(type) {
	case string:
		return r
	case []interface{}:
		first := ""
		for _, item := range r {
			s, _ := item.(string)
			if s == "Admin" {
				return s
			}
			if first == "" {
				first = s
			}
		}
		return first
	}
	return ""
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

func intOf(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
