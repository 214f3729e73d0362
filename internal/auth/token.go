package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pizzanet/pizza-service/internal/models"
)

// TokenManager issues and parses signed JWTs. Tokens carry no expiry; a
// token stays valid until its session is revoked.
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Generate issues a signed JWT for the user and returns the token together
// with its jti, which keys the session record.
func (t *TokenManager) Generate(user models.User) (token, jti string, err error) {
	now := time.Now()
	jti = uuid.NewString()
	claims := jwt.MapClaims{
		"iss": t.issuer,
		"sub": fmt.Sprintf("%d", user.ID),
		"jti": jti,
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// Parse validates a token's signature and returns the bound user id and jti.
func (t *TokenManager) Parse(raw string) (userID int64, jti string, err error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, "", err
	}
	userID, err = strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed subject %q", sub)
	}
	jti, ok = claims["jti"].(string)
	if !ok || jti == "" {
		return 0, "", fmt.Errorf("missing jti claim")
	}
	return userID, jti, nil
}
