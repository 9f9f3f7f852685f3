package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims описывает полезную нагрузку access-токена.
type AccessClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет токены доступа.
// Access-токен — подписанный JWT; refresh-токен — непрозрачная строка,
// хранимая в таблице сессий.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

// GenerateAccessToken выпускает подписанный access-токен.
func (m *TokenManager) GenerateAccessToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token manager: sign %w", err)
	}

	return signed, nil
}

// ParseAccessToken проверяет подпись и срок действия access-токена.
func (m *TokenManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token manager: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: parse %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token manager: invalid token")
	}

	return claims, nil
}

// GenerateRefreshToken выпускает криптографически случайный refresh-токен.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token manager: random %w", err)
	}
	return hex.EncodeToString(buf), nil
}
