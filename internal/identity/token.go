package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/entity"
)

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session claims embedded in issued tokens. Role is empty
// for accounts still waiting for approval.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated actor resolved from a session token.
type Principal struct {
	UserID string
	Name   string
	Role   string
}

// IsManager reports whether the principal holds the manager role.
func (p Principal) IsManager() bool {
	return p.Role == string(entity.RoleManager)
}

// TokenManager issues and verifies HMAC-signed session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Module provides the token manager to Fx.
var Module = fx.Provide(NewTokenManager)

// NewTokenManager builds a TokenManager from configuration.
func NewTokenManager(cfg config.Config) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    cfg.Auth.TokenTTL,
		issuer: cfg.Auth.Issuer,
		now:    time.Now,
	}
}

// Issue signs a session token for the user.
func (m *TokenManager) Issue(user *entity.User) (string, error) {
	now := m.now()
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if user.Role != nil {
		claims.Role = string(*user.Role)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a session token and returns the embedded principal.
func (m *TokenManager) Verify(raw string) (Principal, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}
