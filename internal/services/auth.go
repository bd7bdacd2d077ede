package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (Token, error)
	// ParseToken validates a bearer token and returns the request identity it carries.
	ParseToken(ctx context.Context, tokenString string) (*ctxutil.RequestData, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	deps         Deps
	log          *logger.Logger
	repos        repos.Repos
	writer       *dataagg.Writer
	jwtSecretKey string
	accessTTL    time.Duration
}

type accessClaims struct {
	Superuser bool `json:"su,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthService(deps Deps, jwtSecretKey string, accessTTL time.Duration) AuthService {
	deps = deps.withDefaults()
	if accessTTL <= 0 {
		accessTTL = 8 * 24 * time.Hour
	}
	return &authService{
		deps:         deps,
		log:          deps.Log.With("service", "AuthService"),
		repos:        deps.Repos,
		writer:       deps.writer(),
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func unauthorized(op, message string) error {
	return aggregates.NewError(aggregates.CodeUnauthorized, op, message, nil)
}

func (as *authService) Login(ctx context.Context, email, password string) (Token, error) {
	const op = "AuthService.Login"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Token{}, aggregates.ValidationError(op, "email and password are required")
	}
	var token string
	err := as.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		u, version, err := as.repos.User.GetByEmail(dbc, email)
		if isNotFound(err) {
			return unauthorized(op, "invalid email or password")
		}
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword()), []byte(password)); err != nil {
			return unauthorized(op, "invalid email or password")
		}
		if !u.IsActive() {
			return unauthorized(op, "user is inactive")
		}
		u.UpdateLastLogin()
		if _, err := as.repos.User.Save(dbc, u, version); err != nil {
			return err
		}
		token, err = as.generateAccessToken(u.ID().UUID(), u.IsSuperuser())
		return err
	})
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: token, TokenType: "bearer", ExpiresIn: int64(as.accessTTL.Seconds())}, nil
}

func (as *authService) generateAccessToken(userID uuid.UUID, superuser bool) (string, error) {
	now := as.deps.Clock.Now()
	claims := accessClaims{
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", aggregates.Wrap(aggregates.CodeInternal, "AuthService.generateAccessToken", err)
	}
	return signed, nil
}

func (as *authService) ParseToken(ctx context.Context, tokenString string) (*ctxutil.RequestData, error) {
	const op = "AuthService.ParseToken"
	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.deps.Clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, unauthorized(op, "token expired")
		}
		as.log.Debug("token rejected", "error", err)
		return nil, unauthorized(op, "invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, unauthorized(op, "invalid token subject")
	}
	return &ctxutil.RequestData{
		UserID:      userID,
		IsSuperuser: claims.Superuser,
		TokenString: tokenString,
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	rd, err := as.ParseToken(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
