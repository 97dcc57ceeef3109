// Package archive manages the active/archived lifecycle of products and
// packages and reclaims archived rows once their retention period lapses.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/audit"
	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyArchived is returned when archiving an archived record.
	ErrAlreadyArchived = errors.New("record is already archived")
	// ErrNotArchived is returned when restoring or purging an active record.
	ErrNotArchived = errors.New("record is not archived")
	// ErrStockNotEmpty is returned when deleting a product that still has stock.
	ErrStockNotEmpty = errors.New("product stock is not empty")
)

// DefaultReason is stored when the caller gives no archive reason.
const DefaultReason = "manual_delete"

// Recorder receives the post-commit audit hook of every transition.
type Recorder interface {
	Record(ctx context.Context, adminID uint, action model.Action, before, after audit.Subject) bool
}

// Record constrains the engine to pointer-to-model types with archive state.
type Record[T any] interface {
	*T
	model.Archivable
}

// Engine drives archive transitions and purges for one model type.
type Engine[T any, P Record[T]] struct {
	db      *gorm.DB
	repo    *repository.Repository[T]
	audit   Recorder
	guard   func(P) error
	now     func() time.Time
	log     *zap.Logger
	entity  string
	removed func(model.Ref)
	sweeps  singleflight.Group
}

// ProductEngine archives products; purges require zero stock.
type ProductEngine = Engine[model.Product, *model.Product]

// PackageEngine archives packages.
type PackageEngine = Engine[model.Package, *model.Package]

// NewProductEngine creates the product engine. now may be nil.
func NewProductEngine(db *gorm.DB, rec Recorder, log *zap.Logger, now func() time.Time) *ProductEngine {
	return newEngine[model.Product](db, rec, log, now, string(model.KindProduct), ProductGuard)
}

// NewPackageEngine creates the package engine. now may be nil.
func NewPackageEngine(db *gorm.DB, rec Recorder, log *zap.Logger, now func() time.Time) *PackageEngine {
	return newEngine[model.Package](db, rec, log, now, string(model.KindPackage), nil)
}

func newEngine[T any, P Record[T]](db *gorm.DB, rec Recorder, log *zap.Logger, now func() time.Time, entity string, guard func(P) error) *Engine[T, P] {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine[T, P]{
		db:     db,
		repo:   repository.New[T](db),
		audit:  rec,
		guard:  guard,
		now:    now,
		log:    log.Named("archive").With(zap.String("entity", entity)),
		entity: entity,
	}
}

// OnRemoved registers fn to run after each committed hard delete, from a
// purge or a sweep.
func (e *Engine[T, P]) OnRemoved(fn func(model.Ref)) {
	e.removed = fn
}

func (e *Engine[T, P]) notifyRemoved(ref model.Ref) {
	if e.removed != nil {
		e.removed(ref)
	}
}

// ProductGuard rejects deleting a product that still has stock.
func ProductGuard(p *model.Product) error {
	if p.Stock != 0 {
		return fmt.Errorf("%w: %d left", ErrStockNotEmpty, p.Stock)
	}
	return nil
}

// Archive moves the record to the archived state. archivedAt is left
// untouched when the record is already archived.
func (e *Engine[T, P]) Archive(ctx context.Context, adminID, id uint, reason string) (P, error) {
	row, err := e.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := P(row)
	if rec.IsArchived() {
		return nil, ErrAlreadyArchived
	}
	if reason == "" {
		reason = DefaultReason
	}

	at := e.now()
	n, err := e.repo.UpdateColumns(ctx, map[string]interface{}{
		"archived":       true,
		"archived_at":    at,
		"archive_reason": reason,
	}, repository.Where("id = ?", id), repository.Where("archived = ?", false))
	if err != nil {
		return nil, fmt.Errorf("archive %s %d: %w", e.entity, id, err)
	}
	if n == 0 {
		// Archived by a concurrent request between the read and the write.
		return nil, ErrAlreadyArchived
	}
	rec.MarkArchived(at, reason)

	e.log.Info("Record archived", zap.Uint("id", id), zap.String("reason", reason))
	prometheus.RecordEntityOperation(e.entity, "archive")
	e.audit.Record(ctx, adminID, model.ActionArchive, nil, rec)
	return rec, nil
}

// Unarchive returns the record to the active state.
func (e *Engine[T, P]) Unarchive(ctx context.Context, adminID, id uint) (P, error) {
	row, err := e.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := P(row)
	if !rec.IsArchived() {
		return nil, ErrNotArchived
	}

	n, err := e.repo.UpdateColumns(ctx, map[string]interface{}{
		"archived":       false,
		"archived_at":    nil,
		"archive_reason": "",
	}, repository.Where("id = ?", id), repository.Where("archived = ?", true))
	if err != nil {
		return nil, fmt.Errorf("unarchive %s %d: %w", e.entity, id, err)
	}
	if n == 0 {
		return nil, ErrNotArchived
	}
	rec.Restore()

	e.log.Info("Record restored", zap.Uint("id", id))
	prometheus.RecordEntityOperation(e.entity, "unarchive")
	e.audit.Record(ctx, adminID, model.ActionUnarchive, nil, rec)
	return rec, nil
}

// Purge permanently deletes an archived record.
func (e *Engine[T, P]) Purge(ctx context.Context, adminID, id uint) (P, error) {
	var purged P
	err := repository.Transaction(ctx, e.db, func(tx *gorm.DB) error {
		row, err := e.repo.WithTx(tx).Find(ctx, id)
		if err != nil {
			return err
		}
		rec := P(row)
		if !rec.IsArchived() {
			return ErrNotArchived
		}
		if err := e.remove(ctx, tx, rec); err != nil {
			return err
		}
		purged = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyRemoved(purged.Ref())
	e.log.Info("Record purged", zap.Uint("id", id))
	prometheus.RecordEntityOperation(e.entity, "purge")
	e.audit.Record(ctx, adminID, model.ActionDelete, purged, nil)
	return purged, nil
}

// remove applies the purge guard, detaches audit rows and deletes rec inside tx.
func (e *Engine[T, P]) remove(ctx context.Context, tx *gorm.DB, rec P) error {
	if e.guard != nil {
		if err := e.guard(rec); err != nil {
			return err
		}
	}
	ref := rec.Ref()
	if err := audit.Detach(ctx, tx, ref); err != nil {
		return err
	}
	return e.repo.WithTx(tx).Delete(ctx, ref.ID)
}
