package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims bind a bearer token to one session record and its student. Token
// validity is checked against the signature and expiry only; the session
// itself may already be inactive (logout stays idempotent).
type Claims struct {
	SessionID string `json:"id"`
	StudentID string `json:"studentId"`
	jwt.RegisteredClaims
}

func NewSessionToken(secret string, ttl time.Duration, sessionID, studentID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		SessionID: sessionID,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseSessionToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
