package workqueue

import (
	"clipnest-pipeline/entities"
	"context"
	"encoding/json"
	"fmt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

// Message is a leased queue entry. ReadCount includes the current lease.
type Message struct {
	ID         int64
	ReadCount  int
	EnqueuedAt time.Time
	VisibleAt  time.Time
	Body       json.RawMessage
}

// Queue is a durable at-least-once queue with visibility-timeout leases.
type Queue interface {
	Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error)
	Lease(ctx context.Context, queueName string, visibility time.Duration, maxCount int) ([]Message, error)
	Archive(ctx context.Context, queueName string, msgID int64) error
	Depth(ctx context.Context, queueName string) (int64, error)
}

type Option func(*queue)

// WithClock overrides the time source used for enqueue and lease deadlines.
func WithClock(now func() time.Time) Option {
	return func(q *queue) {
		q.now = now
	}
}

type queue struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB, opts ...Option) Queue {
	q := &queue{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *queue) Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error) {
	now := q.now().UTC()
	msg := &entities.QueueMessage{
		QueueName:  queueName,
		EnqueuedAt: now,
		Vt:         now,
		Message:    datatypes.JSON(payload),
	}
	if err := q.db.WithContext(ctx).Create(msg).Error; err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", queueName, err)
	}
	return msg.MsgID, nil
}

func (q *queue) Lease(ctx context.Context, queueName string, visibility time.Duration, maxCount int) ([]Message, error) {
	if maxCount < 1 {
		maxCount = 1
	}
	now := q.now().UTC()

	var rows []entities.QueueMessage
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sel := tx.Model(&entities.QueueMessage{}).
			Where("queue_name = ? AND archived_at IS NULL AND vt <= ?", queueName, now).
			Order("msg_id ASC").
			Limit(maxCount)
		if tx.Dialector.Name() == "postgres" {
			sel = sel.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var ids []int64
		if err := sel.Pluck("msg_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		err := tx.Model(&entities.QueueMessage{}).
			Where("msg_id IN ?", ids).
			Updates(map[string]interface{}{
				"read_ct": gorm.Expr("read_ct + 1"),
				"vt":      now.Add(visibility),
			}).Error
		if err != nil {
			return err
		}

		return tx.Where("msg_id IN ?", ids).Order("msg_id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("lease %s: %w", queueName, err)
	}

	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, Message{
			ID:         row.MsgID,
			ReadCount:  row.ReadCt,
			EnqueuedAt: row.EnqueuedAt,
			VisibleAt:  row.Vt,
			Body:       json.RawMessage(row.Message),
		})
	}
	return messages, nil
}

// Archive is idempotent: unknown or already archived ids are ignored.
func (q *queue) Archive(ctx context.Context, queueName string, msgID int64) error {
	err := q.db.WithContext(ctx).Model(&entities.QueueMessage{}).
		Where("queue_name = ? AND msg_id = ? AND archived_at IS NULL", queueName, msgID).
		Update("archived_at", q.now().UTC()).Error
	if err != nil {
		return fmt.Errorf("archive %s/%d: %w", queueName, msgID, err)
	}
	return nil
}

func (q *queue) Depth(ctx context.Context, queueName string) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&entities.QueueMessage{}).
		Where("queue_name = ? AND archived_at IS NULL", queueName).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("depth %s: %w", queueName, err)
	}
	return count, nil
}

// Send marshals payload as JSON and enqueues it.
func Send[T any](ctx context.Context, q Queue, queueName string, payload T) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", queueName, err)
	}
	return q.Enqueue(ctx, queueName, body)
}

// Decode unmarshals the message body into T.
func Decode[T any](msg Message) (T, error) {
	var payload T
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return payload, fmt.Errorf("decode message %d: %w", msg.ID, err)
	}
	return payload, nil
}
