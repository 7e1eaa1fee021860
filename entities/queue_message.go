package entities

import (
	"gorm.io/datatypes"
	"time"
)

type QueueMessage struct {
	MsgID      int64          `json:"msg_id" gorm:"column:msg_id;primaryKey;autoIncrement"`
	QueueName  string         `json:"queue_name" gorm:"type:varchar(64);not null;index:idx_queue_messages_lease,priority:1"`
	ReadCt     int            `json:"read_ct" gorm:"not null;default:0"`
	EnqueuedAt time.Time      `json:"enqueued_at" gorm:"not null"`
	Vt         time.Time      `json:"vt" gorm:"column:vt;not null;index:idx_queue_messages_lease,priority:2"`
	Message    datatypes.JSON `json:"message" gorm:"not null"`
	ArchivedAt *time.Time     `json:"archived_at"`
}

func (QueueMessage) TableName() string {
	return "queue_messages"
}
