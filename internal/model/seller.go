package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller owns packages and accumulates a balance until cashout
type Seller struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null;index"`
	Phone     string          `json:"phone" gorm:"type:varchar(30)"`
	Email     string          `json:"email" gorm:"type:varchar(255)"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
