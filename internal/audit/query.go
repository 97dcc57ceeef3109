package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
)

// ErrInvalidFilter is returned for filter values that cannot match any entry.
var ErrInvalidFilter = errors.New("invalid log filter")

// Filter narrows a log listing. Zero fields do not filter. StartDate and
// EndDate are calendar days and both ends are inclusive.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AdminID   *uint
	Action    model.Action
	ProductID *uint
	PackageID *uint
}

// LogPage is one page of audit entries, newest first.
type LogPage struct {
	TotalItems  int64                    `json:"totalItems"`
	TotalPages  int                      `json:"totalPages"`
	CurrentPage int                      `json:"currentPage"`
	Logs        []model.AdminLogActivity `json:"logs"`
}

func (f Filter) scopes() ([]repository.Scope, error) {
	var scopes []repository.Scope
	if f.StartDate != nil {
		scopes = append(scopes, repository.Where("timestamp >= ?", startOfDay(*f.StartDate)))
	}
	if f.EndDate != nil {
		scopes = append(scopes, repository.Where("timestamp < ?", startOfDay(*f.EndDate).AddDate(0, 0, 1)))
	}
	if f.AdminID != nil {
		scopes = append(scopes, repository.Where("admin_id = ?", *f.AdminID))
	}
	if f.Action != "" {
		if !f.Action.Valid() {
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidFilter, f.Action)
		}
		scopes = append(scopes, repository.Where("action = ?", f.Action))
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}
	if f.ProductID != nil {
		scopes = append(scopes, repository.Where("product_id = ?", *f.ProductID))
	}
	if f.PackageID != nil {
		scopes = append(scopes, repository.Where("package_id = ?", *f.PackageID))
	}
	return scopes, nil
}

// Query returns one page of entries matching filter. Non-positive page or
// pageSize fall back to 1 and repository.DefaultPageSize.
func (l *Logger) Query(ctx context.Context, filter Filter, page, pageSize int) (LogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	scopes, err := filter.scopes()
	if err != nil {
		return LogPage{}, err
	}

	result, err := l.logs.Paginate(ctx, repository.Query{
		Scopes: scopes,
		Order:  "timestamp desc, id desc",
	}, page, pageSize)
	if err != nil {
		return LogPage{}, fmt.Errorf("query audit logs: %w", err)
	}

	return LogPage{
		TotalItems:  result.TotalItems,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
		Logs:        result.Items,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
