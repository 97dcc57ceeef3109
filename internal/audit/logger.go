// Package audit records who changed which product or package, and how.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnknownAdmin stands in for an admin whose email could not be resolved.
const UnknownAdmin = "unknown"

// Subject is a record that can be audited.
type Subject interface {
	Ref() model.Ref
}

// Logger persists one AdminLogActivity row per mutating admin action.
// Recording is best effort: failures are logged and never reach the caller.
type Logger struct {
	db     *gorm.DB
	logs   *repository.Repository[model.AdminLogActivity]
	admins *repository.Repository[model.Admin]
	tables map[model.Kind]differ
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithTrackedFields narrows the diffed fields of kind to names.
// Unknown kinds or field names are reported by NewLogger.
func WithTrackedFields(kind model.Kind, names ...string) Option {
	return func(l *Logger) {
		if len(names) == 0 {
			return
		}
		switch kind {
		case model.KindProduct:
			t, err := ProductTable.Only(names...)
			l.setTable(kind, t, err)
		case model.KindPackage:
			t, err := PackageTable.Only(names...)
			l.setTable(kind, t, err)
		default:
			l.setTable(kind, nil, fmt.Errorf("unknown audit kind %q", kind))
		}
	}
}

func (l *Logger) setTable(kind model.Kind, d differ, err error) {
	if err != nil {
		l.tables[kind] = errDiffer{err}
		return
	}
	l.tables[kind] = d
}

// errDiffer carries a configuration error until NewLogger inspects it.
type errDiffer struct{ err error }

func (e errDiffer) diff(Subject, Subject) ([]Change, error) { return nil, e.err }

// NewLogger creates an audit logger over db.
func NewLogger(db *gorm.DB, log *zap.Logger, opts ...Option) (*Logger, error) {
	l := &Logger{
		db:     db,
		logs:   repository.New[model.AdminLogActivity](db),
		admins: repository.New[model.Admin](db),
		tables: map[model.Kind]differ{
			model.KindProduct: ProductTable,
			model.KindPackage: PackageTable,
		},
		now: func() time.Time { return time.Now().UTC() },
		log: log.Named("audit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	for kind, d := range l.tables {
		if e, ok := d.(errDiffer); ok {
			return nil, fmt.Errorf("audit fields for %s: %w", kind, e.err)
		}
	}
	return l, nil
}

// Record writes the audit entry for action. before is the snapshot prior to
// the mutation and after the one following it; CREATE needs only after,
// ARCHIVE/UNARCHIVE/DELETE use whichever is present. It reports whether the
// entry was stored and never returns an error.
func (l *Logger) Record(ctx context.Context, adminID uint, action model.Action, before, after Subject) bool {
	// The entry belongs to a mutation that already committed, so it must not
	// be lost when the request that made it goes away.
	ctx = context.WithoutCancel(ctx)
	log := l.log.With(zap.Uint("admin_id", adminID), zap.String("action", string(action)))

	subject := after
	if subject == nil {
		subject = before
	}
	if subject == nil {
		log.Error("Audit entry has no subject")
		prometheus.RecordAuditEntry("failed")
		return false
	}
	ref := subject.Ref()
	log = log.With(zap.String("kind", string(ref.Kind)), zap.Uint("ref_id", ref.ID))

	detail, err := l.detail(action, ref, before, after)
	if err != nil {
		log.Error("Failed to build audit detail", zap.Error(err))
		prometheus.RecordAuditEntry("failed")
		return false
	}

	email, known := l.resolveAdmin(ctx, adminID)
	entry := model.AdminLogActivity{
		Action:        action,
		ActionDetails: detail,
		Timestamp:     l.now(),
	}
	if known {
		entry.AdminID = &adminID
	}
	// A deleted row can no longer be referenced; the detail keeps its name.
	if action != model.ActionDelete {
		id := ref.ID
		switch ref.Kind {
		case model.KindProduct:
			entry.ProductID = &id
		case model.KindPackage:
			entry.PackageID = &id
		}
	}

	if err := l.logs.Create(ctx, &entry); err != nil {
		log.Error("Failed to store audit entry", zap.String("detail", detail), zap.Error(err))
		prometheus.RecordAuditEntry("failed")
		return false
	}

	log.Info("Audit entry recorded",
		zap.String("admin_email", email),
		zap.String("detail", detail))
	prometheus.RecordAuditEntry("recorded")
	return true
}

func (l *Logger) detail(action model.Action, ref model.Ref, before, after Subject) (string, error) {
	switch action {
	case model.ActionCreate:
		return "Created: " + ref.Name(), nil
	case model.ActionUpdate:
		if before == nil || after == nil {
			return "", fmt.Errorf("update of %s needs both snapshots", ref.Name())
		}
		d, ok := l.tables[ref.Kind]
		if !ok {
			return "", fmt.Errorf("no tracked fields for %s", ref.Kind)
		}
		changes, err := d.diff(before, after)
		if err != nil {
			return "", err
		}
		return UpdateDetail(ref.Name(), changes), nil
	case model.ActionArchive:
		return "Archived: " + ref.Name(), nil
	case model.ActionUnarchive:
		return "Unarchived: " + ref.Name(), nil
	case model.ActionDelete:
		return "Deleted: " + ref.Name(), nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

// UpdateDetail renders the UPDATE summary; it is never empty.
func UpdateDetail(name string, changes []Change) string {
	if len(changes) == 0 {
		return fmt.Sprintf("Updated %s (no changes)", name)
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("Updated %s: %s", name, strings.Join(parts, ", "))
}

// resolveAdmin returns the admin's email and whether the entry may reference
// the admin row. An admin that no longer exists is recorded as UnknownAdmin
// with no reference; a failed lookup keeps the reference.
func (l *Logger) resolveAdmin(ctx context.Context, adminID uint) (string, bool) {
	admin, err := l.admins.Find(ctx, adminID)
	switch {
	case err == nil:
		return admin.Email, true
	case errors.Is(err, repository.ErrNotFound):
		l.log.Warn("Audit entry attributed to unknown admin", zap.Uint("admin_id", adminID))
		return UnknownAdmin, false
	default:
		l.log.Warn("Audit admin lookup failed", zap.Uint("admin_id", adminID), zap.Error(err))
		return UnknownAdmin, true
	}
}

// Detach clears references from audit rows to ref inside tx so a sanctioned
// hard delete is not blocked by the RESTRICT constraint. The entries keep
// their text detail.
func Detach(ctx context.Context, tx *gorm.DB, ref model.Ref) error {
	var column string
	switch ref.Kind {
	case model.KindProduct:
		column = "product_id"
	case model.KindPackage:
		column = "package_id"
	default:
		return fmt.Errorf("detach: unknown kind %q", ref.Kind)
	}
	err := tx.WithContext(ctx).Model(&model.AdminLogActivity{}).
		Where(column+" = ?", ref.ID).
		Update(column, nil).Error
	if err != nil {
		return fmt.Errorf("detach audit rows of %s %d: %w", ref.Kind, ref.ID, err)
	}
	return nil
}
