// Package repository is the persistence layer: a generic gorm-backed CRUD store
// with predicate queries, pagination and transaction scopes.
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Scope is a query predicate applied to a gorm statement.
type Scope = func(*gorm.DB) *gorm.DB

// Query describes a filtered, ordered and paginated read.
// Zero Limit means no limit.
type Query struct {
	Scopes []Scope
	Order  string
	Limit  int
	Offset int
}

// Where builds a Scope from a gorm condition.
func Where(cond interface{}, args ...interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(cond, args...)
	}
}

// Repository provides access to rows of one model type.
type Repository[T any] struct {
	db *gorm.DB
}

// New creates a repository for T.
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

// DB exposes the underlying handle for callers that need a raw statement.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

// Find retrieves a row by primary key.
func (r *Repository[T]) Find(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translate("find", err)
	}
	return &row, nil
}

// FindAll retrieves the rows matching q.
func (r *Repository[T]) FindAll(ctx context.Context, q Query) ([]T, error) {
	var rows []T
	stmt := r.db.WithContext(ctx).Scopes(q.Scopes...)
	if q.Order != "" {
		stmt = stmt.Order(q.Order)
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit)
	}
	if q.Offset > 0 {
		stmt = stmt.Offset(q.Offset)
	}
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, translate("find all", err)
	}
	return rows, nil
}

// First retrieves the first row matching the scopes.
func (r *Repository[T]) First(ctx context.Context, scopes ...Scope) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).Scopes(scopes...).First(&row).Error; err != nil {
		return nil, translate("first", err)
	}
	return &row, nil
}

// Count counts the rows matching q's scopes; ordering and paging are ignored.
func (r *Repository[T]) Count(ctx context.Context, q Query) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Scopes(q.Scopes...).Count(&count).Error; err != nil {
		return 0, translate("count", err)
	}
	return count, nil
}

// Exists reports whether any row matches the scopes.
func (r *Repository[T]) Exists(ctx context.Context, scopes ...Scope) (bool, error) {
	count, err := r.Count(ctx, Query{Scopes: scopes})
	return count > 0, err
}

// Create inserts a new row.
func (r *Repository[T]) Create(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate("create", err)
	}
	return nil
}

// Save writes every column of row, including zero values.
func (r *Repository[T]) Save(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return translate("save", err)
	}
	return nil
}

// Update sets the given columns on the row with primary key id.
func (r *Repository[T]) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if err := result.Error; err != nil {
		return translate("update", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateColumns sets columns on every row matching the scopes without touching
// updated_at or running hooks, and returns the number of rows changed.
func (r *Repository[T]) UpdateColumns(ctx context.Context, fields map[string]interface{}, scopes ...Scope) (int64, error) {
	if len(scopes) == 0 {
		return 0, fmt.Errorf("update columns: refusing to update without a predicate")
	}
	result := r.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).UpdateColumns(fields)
	if err := result.Error; err != nil {
		return 0, translate("update columns", err)
	}
	return result.RowsAffected, nil
}

// Delete permanently removes the row with primary key id.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if err := result.Error; err != nil {
		return translate("delete", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWhere removes every row matching the scopes and returns how many went.
func (r *Repository[T]) DeleteWhere(ctx context.Context, scopes ...Scope) (int64, error) {
	if len(scopes) == 0 {
		return 0, fmt.Errorf("delete where: refusing to delete without a predicate")
	}
	result := r.db.WithContext(ctx).Scopes(scopes...).Delete(new(T))
	if err := result.Error; err != nil {
		return 0, translate("delete where", err)
	}
	return result.RowsAffected, nil
}

// Transaction runs fn inside a single database transaction. The transaction
// is rolled back when fn returns an error or panics.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
