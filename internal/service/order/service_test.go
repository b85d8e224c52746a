package order

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
	orderrepo "github.com/obratech/pedidos/internal/repository/order"
	userrepo "github.com/obratech/pedidos/internal/repository/user"
	"github.com/obratech/pedidos/pkg/errorbank"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, order *entity.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if order := args.Get(0); order != nil {
		return order.(*entity.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]entity.Order, error) {
	args := m.Called(ctx)
	if orders := args.Get(0); orders != nil {
		return orders.([]entity.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByEngineer(ctx context.Context, engineerID string) ([]entity.Order, error) {
	args := m.Called(ctx, engineerID)
	if orders := args.Get(0); orders != nil {
		return orders.([]entity.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListAvailable(ctx context.Context) ([]entity.Order, error) {
	args := m.Called(ctx)
	if orders := args.Get(0); orders != nil {
		return orders.([]entity.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByResponsible(ctx context.Context, managerID string) ([]entity.Order, error) {
	args := m.Called(ctx, managerID)
	if orders := args.Get(0); orders != nil {
		return orders.([]entity.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Claim(ctx context.Context, orderID, managerID, managerName string, at time.Time) error {
	return m.Called(ctx, orderID, managerID, managerName, at).Error(0)
}

func (m *mockStore) AdvanceStatus(ctx context.Context, orderID string, prev, next entity.Status, at time.Time) error {
	return m.Called(ctx, orderID, prev, next, at).Error(0)
}

func (m *mockStore) AppendStatusUpdate(ctx context.Context, update *entity.StatusUpdate) error {
	return m.Called(ctx, update).Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestService(store *mockStore, users *mockDirectory) *Service {
	svc := NewService(Params{
		Store:  store,
		Users:  users,
		Config: config.Config{},
		Logger: zap.NewNop(),
	})
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

func TestServiceCreate(t *testing.T) {
	valid := CreateInput{
		EngineerID:   "eng-1",
		EngineerName: "Felipe",
		Materials:    "50 bags of cement",
		CostCenter:   "Fazenda JFI",
		Deadline:     testNow.Add(24 * time.Hour),
		Urgency:      entity.UrgencyHigh,
	}

	tests := []struct {
		name         string
		mutate       func(*CreateInput)
		setupStore   func(*mockStore)
		expectedKind errorbank.Kind
	}{
		{
			name: "valid order is persisted pending and unclaimed",
			setupStore: func(store *mockStore) {
				store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
			},
		},
		{
			name:         "missing engineer identity",
			mutate:       func(in *CreateInput) { in.EngineerID = "" },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "whitespace-only materials",
			mutate:       func(in *CreateInput) { in.Materials = "   \n\t " },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "missing cost center",
			mutate:       func(in *CreateInput) { in.CostCenter = "" },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "unknown cost center",
			mutate:       func(in *CreateInput) { in.CostCenter = "Fazenda Inexistente" },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "missing deadline",
			mutate:       func(in *CreateInput) { in.Deadline = time.Time{} },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "deadline in the past",
			mutate:       func(in *CreateInput) { in.Deadline = testNow.Add(-48 * time.Hour) },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name:         "invalid urgency",
			mutate:       func(in *CreateInput) { in.Urgency = entity.Urgency("critical") },
			expectedKind: errorbank.KindBadRequest,
		},
		{
			name: "repository failure surfaces as internal",
			setupStore: func(store *mockStore) {
				store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(errors.New("connection refused"))
			},
			expectedKind: errorbank.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			users := new(mockDirectory)
			if tt.setupStore != nil {
				tt.setupStore(store)
			}
			svc := newTestService(store, users)

			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			order, err := svc.Create(context.Background(), in)

			if tt.expectedKind != "" {
				require.Error(t, err)
				assertKind(t, err, tt.expectedKind)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
				assert.NotEmpty(t, order.ID)
				assert.Equal(t, entity.StatusPending, order.Status)
				assert.Nil(t, order.ResponsibleID)
				assert.Equal(t, "50 bags of cement", order.Materials)
				assert.Equal(t, testNow, order.CreatedAt)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestServiceCreateDefaultsUrgency(t *testing.T) {
	store := new(mockStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	svc := newTestService(store, new(mockDirectory))

	order, err := svc.Create(context.Background(), CreateInput{
		EngineerID:   "eng-1",
		EngineerName: "Felipe",
		Materials:    "PVC pipes",
		CostCenter:   "Sítio Vale",
		Deadline:     testNow.Add(72 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.UrgencyNormal, order.Urgency)
}

func TestServiceCreateTrimsMaterials(t *testing.T) {
	store := new(mockStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	svc := newTestService(store, new(mockDirectory))

	order, err := svc.Create(context.Background(), CreateInput{
		EngineerID:   "eng-1",
		EngineerName: "Felipe",
		Materials:    "  rebar 10mm  ",
		CostCenter:   "Casa Felipe",
		Deadline:     testNow.Add(24 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, "rebar 10mm", order.Materials)
}

func TestServiceClaim(t *testing.T) {
	manager := &entity.User{ID: "mgr-1", Name: "Irineia", Role: roleOf(entity.RoleManager)}
	claimedBy := "mgr-2"
	claimed := &entity.Order{
		ID:            "ord-1",
		Status:        entity.StatusPending,
		ResponsibleID: &claimedBy,
	}
	owned := &entity.Order{
		ID:            "ord-1",
		Status:        entity.StatusPending,
		ResponsibleID: &manager.ID,
	}

	tests := []struct {
		name         string
		setup        func(*mockStore, *mockDirectory)
		expectedKind errorbank.Kind
	}{
		{
			name: "manager wins the claim",
			setup: func(store *mockStore, users *mockDirectory) {
				users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
				store.On("Claim", mock.Anything, "ord-1", "mgr-1", "Irineia", testNow).Return(nil)
				store.On("GetByID", mock.Anything, "ord-1").Return(owned, nil)
			},
		},
		{
			name: "losing a race yields conflict",
			setup: func(store *mockStore, users *mockDirectory) {
				users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
				store.On("Claim", mock.Anything, "ord-1", "mgr-1", "Irineia", testNow).Return(orderrepo.ErrPreconditionChanged)
				store.On("GetByID", mock.Anything, "ord-1").Return(claimed, nil)
			},
			expectedKind: errorbank.KindConflict,
		},
		{
			name: "claiming a missing order yields not found",
			setup: func(store *mockStore, users *mockDirectory) {
				users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
				store.On("Claim", mock.Anything, "ord-1", "mgr-1", "Irineia", testNow).Return(orderrepo.ErrPreconditionChanged)
				store.On("GetByID", mock.Anything, "ord-1").Return(nil, orderrepo.ErrNotFound)
			},
			expectedKind: errorbank.KindNotFound,
		},
		{
			name: "unknown actor is rejected",
			setup: func(store *mockStore, users *mockDirectory) {
				users.On("GetByID", mock.Anything, "mgr-1").Return(nil, userrepo.ErrNotFound)
			},
			expectedKind: errorbank.KindUnauthorized,
		},
		{
			name: "engineers cannot claim",
			setup: func(store *mockStore, users *mockDirectory) {
				engineer := &entity.User{ID: "mgr-1", Role: roleOf(entity.RoleEngineer)}
				users.On("GetByID", mock.Anything, "mgr-1").Return(engineer, nil)
			},
			expectedKind: errorbank.KindUnauthorized,
		},
		{
			name: "unapproved actor cannot claim",
			setup: func(store *mockStore, users *mockDirectory) {
				pending := &entity.User{ID: "mgr-1"}
				users.On("GetByID", mock.Anything, "mgr-1").Return(pending, nil)
			},
			expectedKind: errorbank.KindUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			users := new(mockDirectory)
			tt.setup(store, users)
			svc := newTestService(store, users)

			order, err := svc.Claim(context.Background(), "mgr-1", "Irineia", "ord-1")

			if tt.expectedKind != "" {
				require.Error(t, err)
				assertKind(t, err, tt.expectedKind)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
				require.NotNil(t, order.ResponsibleID)
				assert.Equal(t, "mgr-1", *order.ResponsibleID)
			}
			store.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestServiceAdvance(t *testing.T) {
	manager := &entity.User{ID: "mgr-1", Name: "Irineia", Role: roleOf(entity.RoleManager)}

	transitions := []struct {
		from entity.Status
		to   entity.Status
	}{
		{entity.StatusPending, entity.StatusQuoting},
		{entity.StatusQuoting, entity.StatusPurchased},
		{entity.StatusPurchased, entity.StatusShipping},
		{entity.StatusShipping, entity.StatusDelivered},
	}

	for _, tr := range transitions {
		t.Run(string(tr.from)+" advances", func(t *testing.T) {
			store := new(mockStore)
			users := new(mockDirectory)
			users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
			store.On("GetByID", mock.Anything, "ord-1").Return(&entity.Order{ID: "ord-1", Status: tr.from}, nil)
			store.On("AdvanceStatus", mock.Anything, "ord-1", tr.from, tr.to, testNow).Return(nil)
			store.On("AppendStatusUpdate", mock.Anything, mock.MatchedBy(func(u *entity.StatusUpdate) bool {
				return u.OrderID == "ord-1" && u.PreviousStatus == tr.from && u.NewStatus == tr.to && u.UpdatedBy == "mgr-1"
			})).Return(nil)
			svc := newTestService(store, users)

			order, err := svc.Advance(context.Background(), "mgr-1", "Irineia", "ord-1")

			require.NoError(t, err)
			assert.Equal(t, tr.to, order.Status)
			assert.Equal(t, testNow, order.UpdatedAt)
			store.AssertExpectations(t)
		})
	}
}

func TestServiceAdvanceDelivered(t *testing.T) {
	store := new(mockStore)
	users := new(mockDirectory)
	manager := &entity.User{ID: "mgr-1", Role: roleOf(entity.RoleManager)}
	users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
	store.On("GetByID", mock.Anything, "ord-1").Return(&entity.Order{ID: "ord-1", Status: entity.StatusDelivered}, nil)
	svc := newTestService(store, users)

	order, err := svc.Advance(context.Background(), "mgr-1", "Irineia", "ord-1")

	require.Error(t, err)
	assertKind(t, err, errorbank.KindUnprocessableEntity)
	assert.Nil(t, order)
	store.AssertNotCalled(t, "AdvanceStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceAdvanceAuditIsBestEffort(t *testing.T) {
	store := new(mockStore)
	users := new(mockDirectory)
	manager := &entity.User{ID: "mgr-1", Role: roleOf(entity.RoleManager)}
	users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
	store.On("GetByID", mock.Anything, "ord-1").Return(&entity.Order{ID: "ord-1", Status: entity.StatusQuoting}, nil)
	store.On("AdvanceStatus", mock.Anything, "ord-1", entity.StatusQuoting, entity.StatusPurchased, testNow).Return(nil)
	store.On("AppendStatusUpdate", mock.Anything, mock.AnythingOfType("*entity.StatusUpdate")).Return(errors.New("audit table unavailable"))
	svc := newTestService(store, users)

	order, err := svc.Advance(context.Background(), "mgr-1", "Irineia", "ord-1")

	require.NoError(t, err, "a failed audit write must not fail the advancement")
	assert.Equal(t, entity.StatusPurchased, order.Status)
}

func TestServiceAdvanceLostUpdate(t *testing.T) {
	store := new(mockStore)
	users := new(mockDirectory)
	manager := &entity.User{ID: "mgr-1", Role: roleOf(entity.RoleManager)}
	users.On("GetByID", mock.Anything, "mgr-1").Return(manager, nil)
	store.On("GetByID", mock.Anything, "ord-1").Return(&entity.Order{ID: "ord-1", Status: entity.StatusQuoting}, nil)
	store.On("AdvanceStatus", mock.Anything, "ord-1", entity.StatusQuoting, entity.StatusPurchased, testNow).Return(orderrepo.ErrPreconditionChanged)
	svc := newTestService(store, users)

	_, err := svc.Advance(context.Background(), "mgr-1", "Irineia", "ord-1")

	require.Error(t, err)
	assertKind(t, err, errorbank.KindConflict)
}

func TestServiceGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "ord-1").Return(&entity.Order{ID: "ord-1", Status: entity.StatusPending}, nil)
		svc := newTestService(store, new(mockDirectory))

		order, err := svc.Get(context.Background(), "ord-1")
		require.NoError(t, err)
		assert.Equal(t, "ord-1", order.ID)
	})

	t.Run("missing", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetByID", mock.Anything, "nope").Return(nil, orderrepo.ErrNotFound)
		svc := newTestService(store, new(mockDirectory))

		_, err := svc.Get(context.Background(), "nope")
		require.Error(t, err)
		assertKind(t, err, errorbank.KindNotFound)
	})
}

func TestServiceListMine(t *testing.T) {
	store := new(mockStore)
	store.On("ListByResponsible", mock.Anything, "mgr-1").Return([]entity.Order{{ID: "ord-1"}}, nil)
	svc := newTestService(store, new(mockDirectory))

	orders, err := svc.ListMine(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
