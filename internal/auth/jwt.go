package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/parley-be/internal/models"
)

// Claims defines the JWT claims structure. The registered ID (jti) is what
// logout revokes.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (a *Authenticator) generateToken(user models.User) (string, *Claims, error) {
	now := a.nowFn()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (a *Authenticator) parseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.nowFn))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// tokenTTLDefault is how long a session token stays valid without re-login.
const tokenTTLDefault = 24 * time.Hour
