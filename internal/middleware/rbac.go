package middleware

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/models"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && r.act == p.act
`

// BulkNoticesPath is the route guarded by the role policies below.
const BulkNoticesPath = "/api/v1/notices/bulk"

var defaultPolicies = [][]string{
	{models.RoleAdmin, BulkNoticesPath, "POST"},
	{models.RoleStaff, BulkNoticesPath, "POST"},
	{models.RoleFaculty, BulkNoticesPath, "POST"},
}

// NewEnforcer builds the role enforcer with the built-in policies.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, errors.Wrap(err, "loading rbac model")
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating rbac enforcer")
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, errors.Wrap(err, "adding rbac policies")
	}
	return enforcer, nil
}

// Authorize checks the actor's role against the route path and method.
// It must run after Authenticate.
func Authorize(enforcer *casbin.Enforcer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFrom(c)
			if actor == nil {
				return apperrors.Authentication("authentication required")
			}
			allowed, err := enforcer.Enforce(actor.Role, c.Path(), c.Request().Method)
			if err != nil {
				return errors.Wrap(err, "enforcing rbac policy")
			}
			if !allowed {
				return apperrors.Authorization("insufficient permissions for this action")
			}
			return next(c)
		}
	}
}
