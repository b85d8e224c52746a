package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Comment is one note on an order's thread. The thread is append-only;
// comments are never edited or removed.
type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID        string    `bun:",pk"`
	OrderID   string    `bun:"order_id"`
	UserID    string    `bun:"user_id"`
	UserName  string    `bun:"user_name"`
	Comment   string    `bun:"comment"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
