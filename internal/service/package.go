package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PackageInput is the editable part of a package. Empty enum values take
// their defaults (unpaid, cash, unclaimed) and a zero drop-off date is today.
type PackageInput struct {
	SellerID      uint
	PackageName   string
	BuyerName     string
	DropOffDate   time.Time
	Size          model.PackageSize
	Price         decimal.Decimal
	HandlingFee   decimal.Decimal
	PaymentStatus model.PaymentStatus
	PaymentMethod model.PaymentMethod
	ClaimStatus   model.ClaimStatus
}

// PackageFilter narrows a package listing. Search matches package and buyer name.
type PackageFilter struct {
	Search        string
	SellerID      uint
	ClaimStatus   model.ClaimStatus
	PaymentStatus model.PaymentStatus
	Archived      *bool
}

// PackageService manages packages. A package's price is owed to its seller
// once it is claimed, so claim transitions move the seller balance in the
// same transaction as the package write.
type PackageService struct {
	db      *gorm.DB
	repo    *repository.Repository[model.Package]
	sellers *repository.Repository[model.Seller]
	engine  *archive.PackageEngine
	audit   archive.Recorder
	now     func() time.Time
	log     *zap.Logger
}

// NewPackageService wires the package operations. now may be nil.
func NewPackageService(db *gorm.DB, engine *archive.PackageEngine, rec archive.Recorder, log *zap.Logger, now func() time.Time) *PackageService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PackageService{
		db:      db,
		repo:    repository.New[model.Package](db),
		sellers: repository.New[model.Seller](db),
		engine:  engine,
		audit:   rec,
		now:     now,
		log:     log.Named("packages"),
	}
}

func (s *PackageService) normalize(in *PackageInput) error {
	in.PackageName = strings.TrimSpace(in.PackageName)
	in.BuyerName = strings.TrimSpace(in.BuyerName)
	if in.SellerID == 0 {
		return invalid("seller is required")
	}
	if in.PackageName == "" {
		return invalid("package name is required")
	}
	if in.BuyerName == "" {
		return invalid("buyer name is required")
	}
	if in.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if in.HandlingFee.IsNegative() {
		return invalid("handling fee must not be negative")
	}
	if in.DropOffDate.IsZero() {
		in.DropOffDate = s.now()
	}
	in.DropOffDate = startOfDay(in.DropOffDate)

	if in.PaymentStatus == "" {
		in.PaymentStatus = model.PaymentUnpaid
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = model.MethodCash
	}
	if in.ClaimStatus == "" {
		in.ClaimStatus = model.Unclaimed
	}
	switch in.Size {
	case model.SizeSmall, model.SizeMedium, model.SizeLarge:
	default:
		return invalid("size must be one of S, M, L")
	}
	switch in.PaymentStatus {
	case model.PaymentPaid, model.PaymentUnpaid:
	default:
		return invalid("payment status must be paid or unpaid")
	}
	switch in.PaymentMethod {
	case model.MethodCash, model.MethodGCash:
	default:
		return invalid("payment method must be cash or gcash")
	}
	switch in.ClaimStatus {
	case model.Claimed, model.Unclaimed:
	default:
		return invalid("claim status must be claimed or unclaimed")
	}
	return nil
}

// sellerMustExist maps a missing seller onto ErrReferenceViolation.
func sellerMustExist(ctx context.Context, sellers *repository.Repository[model.Seller], id uint) error {
	if _, err := sellers.Find(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("seller %d: %w", id, repository.ErrReferenceViolation)
		}
		return err
	}
	return nil
}

// owed is what the seller is credited for p.
func owed(p *model.Package) decimal.Decimal {
	if p.ClaimStatus == model.Claimed {
		return p.Price
	}
	return decimal.Zero
}

func adjustBalance(ctx context.Context, tx *gorm.DB, sellerID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	err := tx.WithContext(ctx).Model(&model.Seller{}).
		Where("id = ?", sellerID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("adjust balance of seller %d: %w", sellerID, err)
	}
	return nil
}

// Create stores a package for an existing seller.
func (s *PackageService) Create(ctx context.Context, adminID uint, in PackageInput) (*model.Package, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	p := &model.Package{}
	applyPackage(p, in)
	err := repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := sellerMustExist(ctx, s.sellers.WithTx(tx), in.SellerID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		return adjustBalance(ctx, tx, p.SellerID, owed(p))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Package created", zap.Uint("package_id", p.ID), zap.Uint("seller_id", p.SellerID))
	prometheus.RecordEntityOperation("package", "create")
	s.audit.Record(ctx, adminID, model.ActionCreate, nil, p)
	return p, nil
}

// Get returns one package with its seller.
func (s *PackageService) Get(ctx context.Context, id uint) (*model.Package, error) {
	var p model.Package
	if err := s.db.WithContext(ctx).Preload("Seller").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, &repository.StoreError{Op: "find package", Err: err}
	}
	return &p, nil
}

// List returns one page of packages, most recent drop-off first.
func (s *PackageService) List(ctx context.Context, f PackageFilter, page, limit int) (repository.Page[model.Package], error) {
	var scopes []repository.Scope
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		scopes = append(scopes, repository.Where("(LOWER(package_name) LIKE ? OR LOWER(buyer_name) LIKE ?)", like, like))
	}
	if f.SellerID != 0 {
		scopes = append(scopes, repository.Where("seller_id = ?", f.SellerID))
	}
	if f.ClaimStatus != "" {
		scopes = append(scopes, repository.Where("claim_status = ?", f.ClaimStatus))
	}
	if f.PaymentStatus != "" {
		scopes = append(scopes, repository.Where("payment_status = ?", f.PaymentStatus))
	}
	if f.Archived != nil {
		scopes = append(scopes, repository.Where("archived = ?", *f.Archived))
	}
	return s.repo.Paginate(ctx, repository.Query{Scopes: scopes, Order: "drop_off_date desc, id desc"}, page, limit)
}

// Update replaces the editable fields of a package and audits the diff.
// Moving a package between sellers or claim states moves the credited price.
func (s *PackageService) Update(ctx context.Context, adminID, id uint, in PackageInput) (*model.Package, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	var before, after model.Package
	err := repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).Find(ctx, id)
		if err != nil {
			return err
		}
		before = *current
		after = *current
		applyPackage(&after, in)

		if after.SellerID != before.SellerID {
			if err := sellerMustExist(ctx, s.sellers.WithTx(tx), after.SellerID); err != nil {
				return err
			}
		}
		if err := s.repo.WithTx(tx).Save(ctx, &after); err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, before.SellerID, owed(&before).Neg()); err != nil {
			return err
		}
		return adjustBalance(ctx, tx, after.SellerID, owed(&after))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Package updated", zap.Uint("package_id", id))
	prometheus.RecordEntityOperation("package", "update")
	s.audit.Record(ctx, adminID, model.ActionUpdate, &before, &after)
	return &after, nil
}

// Archive moves a package to the archive; reason defaults to manual_delete.
func (s *PackageService) Archive(ctx context.Context, adminID, id uint, reason string) (*model.Package, error) {
	return s.engine.Archive(ctx, adminID, id, reason)
}

// Unarchive restores an archived package.
func (s *PackageService) Unarchive(ctx context.Context, adminID, id uint) (*model.Package, error) {
	return s.engine.Unarchive(ctx, adminID, id)
}

// Purge permanently deletes an archived package.
func (s *PackageService) Purge(ctx context.Context, adminID, id uint) (*model.Package, error) {
	return s.engine.Purge(ctx, adminID, id)
}

func applyPackage(p *model.Package, in PackageInput) {
	p.SellerID = in.SellerID
	p.PackageName = in.PackageName
	p.BuyerName = in.BuyerName
	p.DropOffDate = in.DropOffDate
	p.Size = in.Size
	p.Price = in.Price
	p.HandlingFee = in.HandlingFee
	p.PaymentStatus = in.PaymentStatus
	p.PaymentMethod = in.PaymentMethod
	p.ClaimStatus = in.ClaimStatus
	p.Seller = nil
}
