package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/card-images/models"
)

// Verifier checks bearer tokens issued by the external token provider.
// Tokens are HS256 JWTs whose "sub" claim is the numeric user id.
type Verifier struct {
	secret []byte
}

func NewVerifier(signKey string) *Verifier {
	return &Verifier{secret: []byte(signKey)}
}

// Verify returns the subject of a valid token. Every failure wraps models.ErrUnauthenticated.
func (v *Verifier) Verify(tokenStr string) (int64, error) {
	if tokenStr == "" {
		return 0, fmt.Errorf("%w: missing token", models.ErrUnauthenticated)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	sub, err := subject(claims)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}
	return sub, nil
}

// subject accepts "sub" as a decimal string or a JSON number.
func subject(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["sub"]
	if !ok || raw == nil {
		return 0, errors.New("token has no subject")
	}
	switch s := raw.(type) {
	case string:
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("subject %q is not an integer", s)
		}
		return id, nil
	case float64:
		if s != float64(int64(s)) {
			return 0, fmt.Errorf("subject %v is not an integer", s)
		}
		return int64(s), nil
	default:
		return 0, fmt.Errorf("subject has unsupported type %T", raw)
	}
}
