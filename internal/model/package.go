package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageSize is the parcel size class
type PackageSize string

const (
	SizeSmall  PackageSize = "S"
	SizeMedium PackageSize = "M"
	SizeLarge  PackageSize = "L"
)

// PaymentStatus tracks whether the buyer has paid
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// PaymentMethod is how the buyer pays
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodGCash PaymentMethod = "gcash"
)

// ClaimStatus tracks whether the buyer has picked the package up
type ClaimStatus string

const (
	Claimed   ClaimStatus = "claimed"
	Unclaimed ClaimStatus = "unclaimed"
)

// Package is a parcel dropped off by a seller for a buyer
type Package struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	SellerID      uint            `json:"sellerId" gorm:"not null;index"`
	Seller        *Seller         `json:"seller,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	PackageName   string          `json:"packageName" gorm:"type:varchar(255);not null"`
	BuyerName     string          `json:"buyerName" gorm:"type:varchar(255);not null"`
	DropOffDate   time.Time       `json:"dropOffDate"`
	Size          PackageSize     `json:"size" gorm:"type:varchar(1);not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	HandlingFee   decimal.Decimal `json:"handlingFee" gorm:"type:decimal(12,2);not null;default:0"`
	PaymentStatus PaymentStatus   `json:"paymentStatus" gorm:"type:varchar(10);not null;default:'unpaid'"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(10);not null;default:'cash'"`
	ClaimStatus   ClaimStatus     `json:"claimStatus" gorm:"type:varchar(10);not null;default:'unclaimed';index"`
	ArchiveState
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref identifies the package for audit and archive bookkeeping
func (p *Package) Ref() Ref {
	return Ref{Kind: KindPackage, ID: p.ID, Label: p.PackageName}
}
