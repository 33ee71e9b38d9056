package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenClaims mirrors the tokens issued by the rental backend, where the
// subject is the operator's CPF or CNPJ.
type accessTokenClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ValidateAccessToken checks an HS256 bearer token and returns its subject.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", unauthorizedError("invalid token")
	}
	if len(s.jwtSigningKey) == 0 {
		return "", fmt.Errorf("jwt signing key is not configured")
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.jwtIssuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.jwtIssuer))
	}
	if s.now != nil {
		parserOptions = append(parserOptions, jwt.WithTimeFunc(s.now))
	}

	claims := &accessTokenClaims{}
	parsedToken, err := jwt.ParseWithClaims(
		token,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, unauthorizedError("invalid token")
			}
			return s.jwtSigningKey, nil
		},
		parserOptions...,
	)
	if err != nil || !parsedToken.Valid {
		return "", unauthorizedError("invalid token")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", unauthorizedError("invalid token")
	}

	return subject, nil
}
