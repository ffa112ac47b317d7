// Package auth — access-токены talas: выпуск (для тестов и dev-окружения),
// проверка на сервере и извлечение зрителя на клиенте.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Config — параметры подписи и проверки.
type Config struct {
	Secret   string
	Issuer   string
	Audience []string
	TTL      time.Duration
}

// Claims — полезная нагрузка access-токена.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

const leeway = 5 * time.Second

// Issue подписывает access-токен для userID (HS256).
func Issue(cfg Config, userID uuid.UUID, now time.Time) (string, error) {
	const op = "auth.Issue"

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings(cfg.Audience),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись, алгоритм, срок, issuer и audience и возвращает id пользователя.
func Verify(cfg Config, tokenStr string) (uuid.UUID, error) {
	const op = "auth.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(cfg.Audience...))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return parseUserID(op, claims)
}

// Viewer извлекает id пользователя из токена БЕЗ проверки подписи.
// Годится только для клиентских решений вроде проверки авторства до отправки;
// сервер всё равно проверяет токен сам.
func Viewer(tokenStr string) (uuid.UUID, error) {
	const op = "auth.Viewer"

	if tokenStr == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return parseUserID(op, claims)
}

func parseUserID(op string, c *Claims) (uuid.UUID, error) {
	raw := c.UserID
	if raw == "" {
		raw = c.Subject
	}

	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}
