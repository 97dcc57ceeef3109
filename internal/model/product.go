package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents one stocked item
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string          `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string          `json:"description" gorm:"type:text"`
	RetailPrice decimal.Decimal `json:"retailPrice" gorm:"type:decimal(12,2);not null;default:0"`
	BuyingPrice decimal.Decimal `json:"buyingPrice" gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	ExpiryDate  *time.Time      `json:"expiryDate"`
	ArchiveState
	QRPayload string    `json:"qrPayload" gorm:"type:text"`
	QRPath    string    `json:"qrPath" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref identifies the product for audit and archive bookkeeping
func (p *Product) Ref() Ref {
	return Ref{Kind: KindProduct, ID: p.ID, Label: p.Name}
}
