package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
)

const actorKey = "actor"

// Verifier turns a bearer token into the calling actor.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Actor, error)
}

// Verifiers tries each verifier in turn and keeps the first actor found.
type Verifiers []Verifier

func (vs Verifiers) Verify(ctx context.Context, token string) (*models.Actor, error) {
	var lastErr error
	for _, v := range vs {
		actor, err := v.Verify(ctx, token)
		if err == nil {
			return actor, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errInvalidToken
	}
	return nil, lastErr
}

func bearerToken(c echo.Context) (string, bool, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, apperrors.Authentication("authorization header must be in Bearer format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// Authenticate resolves the caller from the Authorization header. With optional
// set, requests without a header pass through anonymously; a bad token is always rejected.
func Authenticate(v Verifier, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present, err := bearerToken(c)
			if err != nil {
				return err
			}
			if !present {
				if optional {
					return next(c)
				}
				return apperrors.Authentication("authorization header is missing")
			}

			actor, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				return &apperrors.Error{Kind: apperrors.KindAuthentication, Message: "invalid or expired token", Err: err}
			}
			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated actor, or nil for anonymous requests.
func ActorFrom(c echo.Context) *models.Actor {
	actor, _ := c.Get(actorKey).(*models.Actor)
	return actor
}
