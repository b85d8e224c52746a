package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/obratech/pedidos/internal/identity"
	"github.com/obratech/pedidos/internal/presentation/http/response"
	"github.com/obratech/pedidos/pkg/errorbank"
)

const principalKey = "auth.principal"

// RequireSession verifies the Bearer token and stores the principal on the
// request context. Unapproved accounts carry an empty role and still pass;
// role checks happen at the service boundary.
func RequireSession(tokens *identity.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing session token")).Build()
			}
			principal, err := tokens.Verify(raw)
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized("invalid session token")).Build()
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// Principal returns the authenticated actor stored by RequireSession.
func Principal(c echo.Context) (identity.Principal, bool) {
	p, ok := c.Get(principalKey).(identity.Principal)
	return p, ok
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
