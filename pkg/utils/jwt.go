package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	UserID    uuid.UUID
	Role      string
	JTI       string
	ExpiresAt time.Time
}

func GenerateJWT(claims AccessClaims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   claims.UserID.String(),
		"role": claims.Role,
		"jti":  claims.JTI,
		"exp":  claims.ExpiresAt.Unix(),
	})
	return token.SignedString(secret)
}

func DecodeJWT(token string, secret []byte) (jwt.MapClaims, error) {
	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseAccessClaims decodes token and checks that every access claim is present.
func ParseAccessClaims(token string, secret []byte) (*AccessClaims, error) {
	claims, err := DecodeJWT(token, secret)
	if err != nil {
		return nil, err
	}

	idString, _ := claims["id"].(string)
	id, err := uuid.Parse(idString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	return &AccessClaims{
		UserID:    id,
		Role:      role,
		JTI:       jti,
		ExpiresAt: exp.Time,
	}, nil
}
