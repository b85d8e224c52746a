package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/database"
	"github.com/obratech/pedidos/internal/entity"
	"github.com/obratech/pedidos/internal/identity"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Bootstrap seeds a first manager account and a couple of sample orders so
// the approval workflow has someone to act. Idempotent on re-run.
func (s *Seeder) Bootstrap(ctx context.Context) error {
	if err := s.managers(ctx); err != nil {
		return err
	}
	return s.orders(ctx)
}

func (s *Seeder) managers(ctx context.Context) error {
	hash, err := identity.HashPassword("gestor123")
	if err != nil {
		return err
	}

	role := entity.RoleManager
	manager := entity.User{
		ID:           uuid.NewString(),
		Email:        "gestor@pedidos.local",
		PasswordHash: hash,
		Name:         "Gestor Padrão",
		Role:         &role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.NewInsert().Model(&manager).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded bootstrap manager", zap.String("email", manager.Email))
	}
	return nil
}

func (s *Seeder) orders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Order{
		{
			ID:           uuid.NewString(),
			EngineerID:   uuid.NewString(),
			EngineerName: "Engenheiro Exemplo",
			Materials:    "50 sacos de cimento Portland\n10m³ de areia média",
			CostCenter:   "Fazenda JFI",
			Deadline:     now.AddDate(0, 0, 7),
			Urgency:      entity.UrgencyNormal,
			Status:       entity.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.NewString(),
			EngineerID:   uuid.NewString(),
			EngineerName: "Engenheiro Exemplo",
			Materials:    "200 tijolos cerâmicos furados",
			CostCenter:   "Sítio Vale",
			Deadline:     now.AddDate(0, 0, 3),
			Urgency:      entity.UrgencyHigh,
			Status:       entity.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, sample := range samples {
		order := sample
		_, err := s.db.NewInsert().Model(&order).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}
