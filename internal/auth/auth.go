// Package auth issues and verifies the API's bearer tokens and carries the
// authenticated user through the request context. The signing secret is
// injected at construction time, never baked into the code.
package auth

import (
	"net/http"
	"time"

	"conduit/internal/domain"
	"conduit/internal/web"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

const UserCtxKey = "user_data"

var NotAuthenticatedUser = xerrors.Message("not authenticated user")

type UserClaim struct {
	UserID uuid.UUID `json:"user_id"`

	jwt.RegisteredClaims
}

type Auth struct {
	secret   []byte
	tokenTTL time.Duration
}

func New(secret []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// GenerateToken signs a token whose subject is the user's id. The token
// carries no profile data: claims are re-resolved against storage on every
// request.
func (auth *Auth) GenerateToken(userID uuid.UUID) (string, error) {
	expireAt := time.Now().Add(auth.tokenTTL)
	claim := UserClaim{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	signedString, err := token.SignedString(auth.secret)
	if err != nil {
		return "", xerrors.New(err)
	}

	return signedString, nil
}

func (auth *Auth) Authenticate(tokenString string) (*UserClaim, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &UserClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.New("unexpected signing method")
		}
		return auth.secret, nil
	})

	if err != nil {
		return nil, xerrors.New(err)
	}

	if !parsedToken.Valid {
		return nil, xerrors.New("invalid token")
	}

	if claim, ok := parsedToken.Claims.(*UserClaim); ok {
		return claim, nil
	}

	return nil, xerrors.New("could not parse claims")
}

func (auth *Auth) GetAuthenticatedUser(r *http.Request) (*domain.User, error) {
	user, ok := web.GetValueFromContext[*domain.User](r, UserCtxKey)
	if !ok {
		return nil, NotAuthenticatedUser
	}

	return user, nil
}

func (auth *Auth) SetAuthenticatedUser(r *http.Request, user *domain.User) *http.Request {
	return web.AddValueToContext(r, UserCtxKey, user)
}

func (auth *Auth) IsUserAuthenticated(r *http.Request) bool {
	_, err := auth.GetAuthenticatedUser(r)
	return err == nil
}
