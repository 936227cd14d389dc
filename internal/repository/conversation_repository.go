package repository

import (
	"context"

	"tradepulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type ConversationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewConversationRepository(pool PgxPool, tracer trace.Tracer) *ConversationRepository {
	return &ConversationRepository{pool: pool, tracer: tracer}
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, msg domain.ConversationMessage) error {
	_, span := r.tracer.Start(ctx, "conversation-repo.append-message")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (role, content, created_at) VALUES ($1, $2, $3)`,
		msg.Role, msg.Content, msg.CreatedAt.UTC(),
	)
	return err
}

// RecentMessages returns the last n turns in chronological order.
func (r *ConversationRepository) RecentMessages(ctx context.Context, n int) ([]domain.ConversationMessage, error) {
	_, span := r.tracer.Start(ctx, "conversation-repo.recent-messages")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT role, content, created_at
		 FROM (SELECT role, content, created_at, id
		       FROM conversations ORDER BY id DESC LIMIT $1) t
		 ORDER BY t.id`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
