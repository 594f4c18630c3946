package model

import "time"

type Item struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SellerUID   string    `gorm:"column:seller_uid;size:128;index;not null"`
	Title       string    `gorm:"size:120;not null"`
	Description string    `gorm:"type:text;not null"`
	Price       int64     `gorm:"not null"`
	Stock       int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}
