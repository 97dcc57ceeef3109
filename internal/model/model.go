package model

import (
	"fmt"
	"time"
)

// Kind names the record types that are archived and audited
type Kind string

const (
	KindProduct Kind = "product"
	KindPackage Kind = "package"
)

// Ref identifies one record for audit and archive bookkeeping
type Ref struct {
	Kind  Kind
	ID    uint
	Label string
}

// Name returns the label, or "#<id>" when the record has none
func (r Ref) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("#%d", r.ID)
}

// Archivable is implemented by records with an active/archived lifecycle
type Archivable interface {
	Ref() Ref
	IsArchived() bool
	MarkArchived(at time.Time, reason string)
	Restore()
}

// ArchiveState is embedded by archivable models
type ArchiveState struct {
	Archived      bool       `json:"archived" gorm:"not null;default:false;index"`
	ArchivedAt    *time.Time `json:"archivedAt" gorm:"index"`
	ArchiveReason string     `json:"archiveReason" gorm:"type:text"`
}

// IsArchived reports the archived flag
func (s *ArchiveState) IsArchived() bool {
	return s.Archived
}

// MarkArchived sets the flag together with its timestamp and reason
func (s *ArchiveState) MarkArchived(at time.Time, reason string) {
	s.Archived = true
	s.ArchivedAt = &at
	s.ArchiveReason = reason
}

// Restore clears the flag, timestamp and reason
func (s *ArchiveState) Restore() {
	s.Archived = false
	s.ArchivedAt = nil
	s.ArchiveReason = ""
}
