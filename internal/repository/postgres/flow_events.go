package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/domain"
)

type flowEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFlowEventRepository creates a new flow event repository
func NewFlowEventRepository(db *sql.DB, logger *zap.Logger) *flowEventRepository {
	return &flowEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *flowEventRepository) Create(ctx context.Context, event *domain.FlowEvent) error {
	query := `
		INSERT INTO flow_events (id, user_id, order_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	var orderID sql.NullString
	if event.OrderID != "" {
		orderID = sql.NullString{String: event.OrderID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		orderID,
		event.EventType,
		data,
		event.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create flow event", zap.Error(err))
		return err
	}

	return nil
}

func (r *flowEventRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.FlowEvent, error) {
	query := `
		SELECT id, user_id, order_id, event_type, event_data, created_at
		FROM flow_events
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query flow events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.FlowEvent
	for rows.Next() {
		var event domain.FlowEvent
		var order sql.NullString
		var data []byte

		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&order,
			&event.EventType,
			&data,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}

		event.OrderID = order.String
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.EventData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
