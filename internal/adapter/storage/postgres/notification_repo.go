package postgres

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// NotificationRepo implements ports.NotificationRepository over
// notification_deliveries.
type NotificationRepo struct {
	pool Pool
}

func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, d *domain.NotificationDelivery) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notification_deliveries
		(id, session_id, cliente_id, destination, payload, http_status, attempt, status, last_error, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.ReservationID, d.ClientID, d.Destination,
		d.Payload, d.HTTPStatus, d.Attempt, string(d.Status),
		d.LastError, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification delivery: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Update(ctx context.Context, d *domain.NotificationDelivery) error {
	d.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_deliveries
		 SET http_status=$1, attempt=$2, status=$3, last_error=$4, updated_at=$5
		 WHERE id=$6`,
		d.HTTPStatus, d.Attempt, string(d.Status), d.LastError, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update notification delivery: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.NotificationDelivery, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, cliente_id, destination, payload,
		 http_status, attempt, status, last_error, created_at, updated_at
		 FROM notification_deliveries
		 WHERE session_id=$1
		 ORDER BY created_at DESC`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list notification deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.NotificationDelivery
	for rows.Next() {
		var d domain.NotificationDelivery
		var status string
		if err := rows.Scan(
			&d.ID, &d.ReservationID, &d.ClientID, &d.Destination, &d.Payload,
			&d.HTTPStatus, &d.Attempt, &status, &d.LastError,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification delivery: %w", err)
		}
		d.Status = domain.DeliveryStatus(status)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
