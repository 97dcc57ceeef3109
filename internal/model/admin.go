package model

import "time"

// Admin is an operator account; every audited mutation is attributed to one
type Admin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Action is the audited operation
type Action string

const (
	ActionCreate    Action = "CREATE"
	ActionUpdate    Action = "UPDATE"
	ActionDelete    Action = "DELETE"
	ActionArchive   Action = "ARCHIVE"
	ActionUnarchive Action = "UNARCHIVE"
)

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionArchive, ActionUnarchive:
		return true
	}
	return false
}

// AdminLogActivity is one audit entry. Admin, product and package references
// are RESTRICT: the referenced row cannot be removed while the entry points at it.
// A nil AdminID marks an entry whose admin no longer existed when it was written.
type AdminLogActivity struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AdminID       *uint     `json:"adminId" gorm:"index"`
	Admin         *Admin    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Action        Action    `json:"action" gorm:"type:varchar(10);not null;index"`
	ProductID     *uint     `json:"productId" gorm:"index"`
	Product       *Product  `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	PackageID     *uint     `json:"packageId" gorm:"index"`
	Package       *Package  `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	ActionDetails string    `json:"actionDetails" gorm:"type:text;not null"`
	Timestamp     time.Time `json:"timestamp" gorm:"not null;index"`
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&Seller{},
		&Product{},
		&Package{},
		&AdminLogActivity{},
	}
}
