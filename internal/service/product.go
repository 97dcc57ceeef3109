package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/pkg/qrcode"
	"inventory-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minProductID = 1_000_000
	maxProductID = 9_999_999
	// idAttempts bounds the retries on a random id collision.
	idAttempts = 10
	// MinShelfDays is how many calendar days past today an expiry date must be.
	MinShelfDays = 5
)

// QRWriter stores product QR images.
type QRWriter interface {
	Write(id uint, payload string) (string, error)
	Remove(id uint) error
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string
	Description string
	RetailPrice decimal.Decimal
	BuyingPrice decimal.Decimal
	Stock       int
	Category    string
	ExpiryDate  *time.Time
}

// ProductFilter narrows a product listing. Search matches name, category and description.
type ProductFilter struct {
	Search   string
	Category string
	Archived *bool
}

// ProductService manages products.
type ProductService struct {
	repo   *repository.Repository[model.Product]
	engine *archive.ProductEngine
	audit  archive.Recorder
	qr     QRWriter
	now    func() time.Time
	newID  func() uint
	log    *zap.Logger
}

// NewProductService wires the product operations. now may be nil.
func NewProductService(db *gorm.DB, engine *archive.ProductEngine, rec archive.Recorder, qr QRWriter, log *zap.Logger, now func() time.Time) *ProductService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	s := &ProductService{
		repo:   repository.New[model.Product](db),
		engine: engine,
		audit:  rec,
		qr:     qr,
		now:    now,
		newID:  func() uint { return uint(minProductID + rand.IntN(maxProductID-minProductID+1)) },
		log:    log.Named("products"),
	}
	// Purges and retention sweeps both leave a stale image behind otherwise.
	engine.OnRemoved(func(ref model.Ref) { s.removeQR(ref.ID) })
	return s
}

func (s *ProductService) validate(in *ProductInput, checkExpiry bool) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("product name is required")
	}
	if in.RetailPrice.IsNegative() {
		return invalid("retail price must not be negative")
	}
	if in.BuyingPrice.IsNegative() {
		return invalid("buying price must not be negative")
	}
	if in.Stock < 0 {
		return invalid("stock must not be negative")
	}
	if checkExpiry && in.ExpiryDate != nil {
		limit := startOfDay(s.now()).AddDate(0, 0, MinShelfDays)
		if !startOfDay(*in.ExpiryDate).After(limit) {
			return invalid("expiry date must be after %s", limit.Format(time.DateOnly))
		}
	}
	return nil
}

func (s *ProductService) nameTaken(ctx context.Context, name string, exceptID uint) error {
	scopes := []repository.Scope{repository.Where("name = ?", name)}
	if exceptID != 0 {
		scopes = append(scopes, repository.Where("id <> ?", exceptID))
	}
	taken, err := s.repo.Exists(ctx, scopes...)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("product %q: %w", name, repository.ErrDuplicate)
	}
	return nil
}

func (s *ProductService) allocateID(ctx context.Context) (uint, error) {
	for i := 0; i < idAttempts; i++ {
		id := s.newID()
		taken, err := s.repo.Exists(ctx, repository.Where("id = ?", id))
		if err != nil {
			return 0, err
		}
		if !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no free product id after %d attempts", idAttempts)
}

// Create validates in, assigns a random 7-digit id, renders the QR image and
// stores the product. Nothing is written when validation fails.
func (s *ProductService) Create(ctx context.Context, adminID uint, in ProductInput) (*model.Product, error) {
	defer prometheus.TrackDBOperation("product_create")(time.Now())

	if err := s.validate(&in, true); err != nil {
		return nil, err
	}
	if err := s.nameTaken(ctx, in.Name, 0); err != nil {
		return nil, err
	}
	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Product{ID: id}
	apply(p, in)
	if err := s.renderQR(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.removeQR(p.ID)
		return nil, err
	}

	s.log.Info("Product created", zap.Uint("product_id", p.ID), zap.String("name", p.Name))
	prometheus.RecordEntityOperation("product", "create")
	s.audit.Record(ctx, adminID, model.ActionCreate, nil, p)
	return p, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	return s.repo.Find(ctx, id)
}

// List returns one page of products, newest first.
func (s *ProductService) List(ctx context.Context, f ProductFilter, page, limit int) (repository.Page[model.Product], error) {
	var scopes []repository.Scope
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		scopes = append(scopes, repository.Where(
			"(LOWER(name) LIKE ? OR LOWER(category) LIKE ? OR LOWER(description) LIKE ?)", like, like, like))
	}
	if f.Category != "" {
		scopes = append(scopes, repository.Where("category = ?", f.Category))
	}
	if f.Archived != nil {
		scopes = append(scopes, repository.Where("archived = ?", *f.Archived))
	}
	return s.repo.Paginate(ctx, repository.Query{Scopes: scopes, Order: "created_at desc, id desc"}, page, limit)
}

// Update replaces the editable fields of a product and audits the diff.
// The expiry rule applies only when the expiry date changes.
func (s *ProductService) Update(ctx context.Context, adminID, id uint, in ProductInput) (*model.Product, error) {
	before, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in, expiryChanged(before.ExpiryDate, in.ExpiryDate)); err != nil {
		return nil, err
	}
	if in.Name != before.Name {
		if err := s.nameTaken(ctx, in.Name, id); err != nil {
			return nil, err
		}
	}

	after := *before
	apply(&after, in)
	if after.Name != before.Name {
		if err := s.renderQR(&after); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, &after); err != nil {
		if after.QRPayload != before.QRPayload {
			s.restoreQR(before)
		}
		return nil, err
	}

	s.log.Info("Product updated", zap.Uint("product_id", id))
	prometheus.RecordEntityOperation("product", "update")
	s.audit.Record(ctx, adminID, model.ActionUpdate, before, &after)
	return &after, nil
}

// Archive moves a product to the archive; reason defaults to manual_delete.
func (s *ProductService) Archive(ctx context.Context, adminID, id uint, reason string) (*model.Product, error) {
	return s.engine.Archive(ctx, adminID, id, reason)
}

// Unarchive restores an archived product.
func (s *ProductService) Unarchive(ctx context.Context, adminID, id uint) (*model.Product, error) {
	return s.engine.Unarchive(ctx, adminID, id)
}

// Purge permanently deletes an archived product with no stock left.
func (s *ProductService) Purge(ctx context.Context, adminID, id uint) (*model.Product, error) {
	return s.engine.Purge(ctx, adminID, id)
}

// RegenerateQR re-renders the QR image of a product.
func (s *ProductService) RegenerateQR(ctx context.Context, id uint) (*model.Product, error) {
	p, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.renderQR(p); err != nil {
		return nil, err
	}
	_, err = s.repo.UpdateColumns(ctx, map[string]interface{}{
		"qr_payload": p.QRPayload,
		"qr_path":    p.QRPath,
	}, repository.Where("id = ?", id))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) renderQR(p *model.Product) error {
	payload := qrcode.Payload(p.ID, p.Name)
	path, err := s.qr.Write(p.ID, payload)
	if err != nil {
		return err
	}
	p.QRPayload = payload
	p.QRPath = path
	return nil
}

// restoreQR puts back the image of the stored row after a rename failed to persist.
func (s *ProductService) restoreQR(p *model.Product) {
	if p.QRPayload == "" {
		s.removeQR(p.ID)
		return
	}
	if _, err := s.qr.Write(p.ID, p.QRPayload); err != nil {
		s.log.Error("Failed to restore QR image", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}

func (s *ProductService) removeQR(id uint) {
	if err := s.qr.Remove(id); err != nil {
		s.log.Warn("Failed to remove QR image", zap.Uint("product_id", id), zap.Error(err))
	}
}

func apply(p *model.Product, in ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.RetailPrice = in.RetailPrice
	p.BuyingPrice = in.BuyingPrice
	p.Stock = in.Stock
	p.Category = in.Category
	if in.ExpiryDate != nil {
		d := startOfDay(*in.ExpiryDate)
		p.ExpiryDate = &d
	} else {
		p.ExpiryDate = nil
	}
}

func expiryChanged(prev, next *time.Time) bool {
	if prev == nil || next == nil {
		return prev != next
	}
	return !startOfDay(*prev).Equal(startOfDay(*next))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBusinessError reports whether err is an expected rule violation rather
// than a store or programming failure.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		repository.ErrNotFound,
		repository.ErrDuplicate,
		repository.ErrReferenceViolation,
		archive.ErrAlreadyArchived,
		archive.ErrNotArchived,
		archive.ErrStockNotEmpty,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
