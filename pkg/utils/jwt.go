package utils

import (
	"fmt"

	jwt "github.com/dgrijalva/jwt-go"
)

// Claims is alias of jwt.MapClaims
type Claims = jwt.MapClaims

// GenerateToken signs claims into a compact HS256 token. Expiry is
// the caller's concern, set an "exp" claim to get one enforced.
func GenerateToken(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies signature and registered claims, returning
// the claims carried by the token. Tokens signed with any method
// other than HS256 are rejected before the signature check.
func ValidateToken(secret string, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("failed to parse token claims")
	}
	return claims, nil
}
