package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/services"
)

type stubAuth struct {
	userID uuid.UUID
}

func (s stubAuth) Login(context.Context, string, string) (services.Token, error) {
	return services.Token{}, errors.New("not used")
}

func (s stubAuth) ParseToken(_ context.Context, token string) (*ctxutil.RequestData, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return &ctxutil.RequestData{UserID: s.userID, TokenString: token}, nil
}

func (s stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, err := s.ParseToken(ctx, token)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (s stubAuth) GetAccessTTL() time.Duration { return time.Hour }

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	am := NewAuthMiddleware(logger.Nop(), stubAuth{userID: userID})

	tests := []struct {
		name     string
		required bool
		header   string
		want     int
		wantUser uuid.UUID
	}{
		{"required without token", true, "", http.StatusUnauthorized, uuid.Nil},
		{"required with bad token", true, "Bearer nope", http.StatusUnauthorized, uuid.Nil},
		{"required with token", true, "Bearer good", http.StatusOK, userID},
		{"optional anonymous", false, "", http.StatusOK, uuid.Nil},
		{"optional lowercase scheme", false, "bearer good", http.StatusOK, userID},
		{"optional with bad token", false, "Bearer nope", http.StatusUnauthorized, uuid.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			if tt.required {
				r.Use(am.RequireAuth())
			} else {
				r.Use(am.OptionalAuth())
			}
			var seen uuid.UUID
			r.GET("/whoami", func(c *gin.Context) {
				seen = ctxutil.ActorID(c.Request.Context())
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if seen != tt.wantUser {
				t.Fatalf("actor: got=%s want=%s", seen, tt.wantUser)
			}
		})
	}
}

func TestTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceContext())
	var td *ctxutil.TraceData
	r.GET("/", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "req-123" {
		t.Fatalf("request id header: %q", got)
	}
	if td == nil || td.RequestID != "req-123" || td.TraceID == "" {
		t.Fatalf("trace data: %+v", td)
	}
	if rec.Header().Get(HeaderTraceID) != td.TraceID {
		t.Fatalf("trace id header mismatch")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Fatalf("generated request id: %v", err)
	}
}
