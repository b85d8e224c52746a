package dto

import (
	"time"

	"github.com/obratech/pedidos/internal/entity"
)

// CommentResponse represents one note on an order thread.
type CommentResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a comment entity onto its transport representation.
func NewCommentResponse(c *entity.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		OrderID:   c.OrderID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Comment:   c.Comment,
		CreatedAt: c.CreatedAt,
	}
}

// NewCommentResponses maps a slice of comments preserving input order.
func NewCommentResponses(comments []entity.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}
