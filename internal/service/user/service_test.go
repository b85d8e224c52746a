package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/entity"
	"github.com/obratech/pedidos/internal/identity"
	userrepo "github.com/obratech/pedidos/internal/repository/user"
	"github.com/obratech/pedidos/pkg/errorbank"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListPending(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	if users := args.Get(0); users != nil {
		return users.([]entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) AssignRole(ctx context.Context, userID string, role entity.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *mockStore) *Service {
	tokens := identity.NewTokenManager(config.Config{Auth: config.Auth{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "test",
	}})
	svc := NewService(Params{Store: store, Tokens: tokens, Logger: zap.NewNop()})
	svc.now = func() time.Time { return testNow }
	return svc
}

func roleOf(r entity.Role) *entity.Role {
	return &r
}

func assertKind(t *testing.T, err error, kind errorbank.Kind) {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind())
}

func TestServiceSignup(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		password     string
		userName     string
		setup        func(*mockStore)
		expectedKind errorbank.Kind
	}{
		{
			name:     "new account starts without a role",
			email:    "Novo.Engenheiro@Obra.com",
			password: "segredo123",
			userName: "Novo Engenheiro",
			setup: func(store *mockStore) {
				store.On("GetByEmail", mock.Anything, "novo.engenheiro@obra.com").Return(nil, userrepo.ErrNotFound)
				store.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)
			},
		},
		{
			name:         "missing fields",
			email:        "",
			password:     "segredo123",
			userName:     "Novo",
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "invalid email",
			email:        "not-an-email",
			password:     "segredo123",
			userName:     "Novo",
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "short password",
			email:        "novo@obra.com",
			password:     "curta",
			userName:     "Novo",
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:     "duplicate email",
			email:    "ja@obra.com",
			password: "segredo123",
			userName: "Novo",
			setup: func(store *mockStore) {
				store.On("GetByEmail", mock.Anything, "ja@obra.com").Return(&entity.User{ID: "u-1"}, nil)
			},
			expectedKind: errorbank.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := newTestService(store)

			user, err := svc.Signup(context.Background(), tt.email, tt.password, tt.userName)

			if tt.expectedKind != "" {
				require.Error(t, err)
				assertKind(t, err, tt.expectedKind)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.NotEmpty(t, user.ID)
				assert.Equal(t, "novo.engenheiro@obra.com", user.Email)
				assert.Nil(t, user.Role, "signup must never assign a role")
				assert.False(t, user.Approved())
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.True(t, identity.CheckPassword(user.PasswordHash, tt.password))
			}
			store.AssertExpectations(t)
		})
	}
}

func TestServiceLogin(t *testing.T) {
	hash, err := identity.HashPassword("segredo123")
	require.NoError(t, err)

	approved := &entity.User{
		ID:           "u-1",
		Email:        "gestor@obra.com",
		Name:         "Gestor",
		PasswordHash: hash,
		Role:         roleOf(entity.RoleManager),
	}
	pending := &entity.User{
		ID:           "u-2",
		Email:        "novo@obra.com",
		Name:         "Novo",
		PasswordHash: hash,
	}

	t.Run("approved account logs in with a token", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByEmail", mock.Anything, "gestor@obra.com").Return(approved, nil)
		store.On("TouchLastLogin", mock.Anything, "u-1", testNow).Return(nil)
		svc := newTestService(store)

		res, err := svc.Login(context.Background(), "  Gestor@Obra.com ", "segredo123")

		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.False(t, res.PendingApproval)
		require.NotNil(t, res.User.LastLogin)
		assert.Equal(t, testNow, *res.User.LastLogin)
	})

	t.Run("pending account is flagged for the waiting screen", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByEmail", mock.Anything, "novo@obra.com").Return(pending, nil)
		store.On("TouchLastLogin", mock.Anything, "u-2", testNow).Return(nil)
		svc := newTestService(store)

		res, err := svc.Login(context.Background(), "novo@obra.com", "segredo123")

		require.NoError(t, err)
		assert.True(t, res.PendingApproval)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("unknown email", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByEmail", mock.Anything, "quem@obra.com").Return(nil, userrepo.ErrNotFound)
		svc := newTestService(store)

		_, err := svc.Login(context.Background(), "quem@obra.com", "segredo123")
		assertKind(t, err, errorbank.KindUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByEmail", mock.Anything, "gestor@obra.com").Return(approved, nil)
		svc := newTestService(store)

		_, err := svc.Login(context.Background(), "gestor@obra.com", "errada")
		assertKind(t, err, errorbank.KindUnauthorized)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByEmail", mock.Anything, "gestor@obra.com").Return(approved, nil)
		store.On("TouchLastLogin", mock.Anything, "u-1", testNow).Return(errors.New("write timeout"))
		svc := newTestService(store)

		res, err := svc.Login(context.Background(), "gestor@obra.com", "segredo123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
	})
}

func TestServiceApprove(t *testing.T) {
	manager := &entity.User{ID: "mgr-1", Role: roleOf(entity.RoleManager)}
	engineer := &entity.User{ID: "eng-1", Role: roleOf(entity.RoleEngineer)}

	t.Run("manager approves a pending account once", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
		store.On("AssignRole", mock.Anything, "u-9", entity.RoleEngineer).Return(nil)
		store.On("GetByID", mock.Anything, "u-9").Return(&entity.User{ID: "u-9", Role: roleOf(entity.RoleEngineer)}, nil)
		svc := newTestService(store)

		user, err := svc.Approve(context.Background(), "mgr-1", "u-9", entity.RoleEngineer)

		require.NoError(t, err)
		require.NotNil(t, user.Role)
		assert.Equal(t, entity.RoleEngineer, *user.Role)
		store.AssertExpectations(t)
	})

	t.Run("re-approval is rejected", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
		store.On("AssignRole", mock.Anything, "u-9", entity.RoleManager).Return(userrepo.ErrAlreadyApproved)
		store.On("GetByID", mock.Anything, "u-9").Return(&entity.User{ID: "u-9", Role: roleOf(entity.RoleEngineer)}, nil)
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), "mgr-1", "u-9", entity.RoleManager)
		assertKind(t, err, errorbank.KindConflict)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc := newTestService(new(mockStore))

		_, err := svc.Approve(context.Background(), "mgr-1", "u-9", entity.Role("admin"))
		assertKind(t, err, errorbank.KindBadRequest)
	})

	t.Run("engineers cannot approve", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "eng-1").Return(engineer, nil)
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), "eng-1", "u-9", entity.RoleEngineer)
		assertKind(t, err, errorbank.KindUnauthorized)
		store.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("approving a missing user", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
		store.On("AssignRole", mock.Anything, "ghost", entity.RoleEngineer).Return(userrepo.ErrAlreadyApproved)
		store.On("GetByID", mock.Anything, "ghost").Return(nil, userrepo.ErrNotFound)
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), "mgr-1", "ghost", entity.RoleEngineer)
		assertKind(t, err, errorbank.KindNotFound)
	})
}

func TestServiceListPending(t *testing.T) {
	store := new(mockStore)
	store.On("ListPending", mock.Anything).Return([]entity.User{{ID: "u-1"}, {ID: "u-2"}}, nil)
	svc := newTestService(store)

	users, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
