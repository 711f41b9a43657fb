// Package auth issues and verifies student access tokens and hashes
// passwords.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "concept-explainer-api"

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues HS256 bearer tokens for students.
type TokenManager struct {
	secretKey []byte
	expiresIn time.Duration
	issuer    string
	now       func() time.Time
}

// Claims carries the student identity. The subject is the username.
type Claims struct {
	StudentID string `json:"student_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

func NewTokenManager(secretKey string, expiresIn time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		expiresIn: expiresIn,
		issuer:    issuer,
		now:       time.Now,
	}
}

func (tm *TokenManager) GenerateToken(studentID, username string) (string, error) {
	now := tm.now()
	claims := &Claims{
		StudentID: studentID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiresIn)),
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audience},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, expiry, issuer and audience. Every
// failure wraps ErrInvalidToken.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !slices.Contains(claims.Audience, audience) {
		return nil, fmt.Errorf("%w: missing subject or audience", ErrInvalidToken)
	}
	return claims, nil
}

func (tm *TokenManager) ExpiresIn() time.Duration {
	return tm.expiresIn
}
