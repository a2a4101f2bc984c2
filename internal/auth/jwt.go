package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MachineClaims identify a machine client of the admin API. There are
// no interactive users; every caller authenticates with a long-lived
// machine token.
type MachineClaims struct {
	MachineID string `json:"machine_id"`
	jwt.RegisteredClaims
}

type TokenHandler struct {
	secretKey []byte
	tokenTTL  time.Duration
}

func NewTokenHandler(secretKey string, ttl time.Duration) *TokenHandler {
	return &TokenHandler{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
	}
}

// GenerateMachineToken creates a new machine token
func (h *TokenHandler) GenerateMachineToken(machineID string) (string, error) {
	now := time.Now()
	claims := MachineClaims{
		MachineID: machineID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			Issuer:    "openbusbridge",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secretKey)
}

// ValidateToken validates and parses a machine token
func (h *TokenHandler) ValidateToken(tokenString string) (*MachineClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MachineClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*MachineClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
