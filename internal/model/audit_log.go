package model

import "time"

// AuditLog records one row per mutating operation on an order, including who
// performed it.
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64    `gorm:"column:order_id;index;not null"`
	ActorUID  string    `gorm:"column:actor_uid;size:128;index;not null"`
	ActorRole string    `gorm:"column:actor_role;size:16;not null"`
	Action    string    `gorm:"column:action;size:64;not null"`
	Detail    string    `gorm:"column:detail;type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
