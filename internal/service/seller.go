package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/audit"
	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SellerInput is the editable part of a seller.
type SellerInput struct {
	Name  string
	Phone string
	Email string
}

// CashoutResult reports what a cashout paid and removed.
type CashoutResult struct {
	SellerID        uint            `json:"sellerId"`
	Amount          decimal.Decimal `json:"amount"`
	RemovedPackages int             `json:"removedPackages"`
}

// SellerService manages sellers and their cashouts.
type SellerService struct {
	db       *gorm.DB
	repo     *repository.Repository[model.Seller]
	packages *repository.Repository[model.Package]
	audit    archive.Recorder
	log      *zap.Logger
}

func NewSellerService(db *gorm.DB, rec archive.Recorder, log *zap.Logger) *SellerService {
	return &SellerService{
		db:       db,
		repo:     repository.New[model.Seller](db),
		packages: repository.New[model.Package](db),
		audit:    rec,
		log:      log.Named("sellers"),
	}
}

func validateSeller(in *SellerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return invalid("seller name is required")
	}
	return nil
}

// Create stores a seller with a zero balance.
func (s *SellerService) Create(ctx context.Context, in SellerInput) (*model.Seller, error) {
	if err := validateSeller(&in); err != nil {
		return nil, err
	}
	seller := &model.Seller{Name: in.Name, Phone: in.Phone, Email: in.Email, Balance: decimal.Zero}
	if err := s.repo.Create(ctx, seller); err != nil {
		return nil, err
	}
	s.log.Info("Seller created", zap.Uint("seller_id", seller.ID))
	prometheus.RecordEntityOperation("seller", "create")
	return seller, nil
}

// Get returns one seller.
func (s *SellerService) Get(ctx context.Context, id uint) (*model.Seller, error) {
	return s.repo.Find(ctx, id)
}

// List returns one page of sellers ordered by name.
func (s *SellerService) List(ctx context.Context, search string, page, limit int) (repository.Page[model.Seller], error) {
	var scopes []repository.Scope
	if q := strings.TrimSpace(search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		scopes = append(scopes, repository.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like))
	}
	return s.repo.Paginate(ctx, repository.Query{Scopes: scopes, Order: "name asc, id asc"}, page, limit)
}

// Update changes a seller's contact details. The balance is not editable.
func (s *SellerService) Update(ctx context.Context, id uint, in SellerInput) (*model.Seller, error) {
	if err := validateSeller(&in); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, id, map[string]interface{}{
		"name":  in.Name,
		"phone": in.Phone,
		"email": in.Email,
	})
	if err != nil {
		return nil, err
	}
	prometheus.RecordEntityOperation("seller", "update")
	return s.repo.Find(ctx, id)
}

// Delete removes a seller together with all of their packages. Each removed
// package is audited as deleted by adminID.
func (s *SellerService) Delete(ctx context.Context, adminID, id uint) error {
	var removed []model.Package
	err := repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		removed, err = s.detachPackages(ctx, tx, repository.Where("seller_id = ?", id))
		if err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Seller deleted", zap.Uint("seller_id", id), zap.Int("packages", len(removed)))
	prometheus.RecordEntityOperation("seller", "delete")
	s.recordDeleted(ctx, adminID, removed)
	return nil
}

// Cashout pays out a seller: the balance is reset to zero and every claimed
// package of the seller is removed, in one transaction. Either both happen
// or neither does.
func (s *SellerService) Cashout(ctx context.Context, adminID, id uint) (CashoutResult, error) {
	defer prometheus.TrackDBOperation("seller_cashout")(time.Now())

	var (
		res     = CashoutResult{SellerID: id}
		removed []model.Package
	)
	err := repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		seller, err := s.repo.WithTx(tx).Find(ctx, id)
		if err != nil {
			return err
		}
		res.Amount = seller.Balance

		if _, err := s.repo.WithTx(tx).UpdateColumns(ctx, map[string]interface{}{"balance": decimal.Zero},
			repository.Where("id = ?", id)); err != nil {
			return fmt.Errorf("reset balance: %w", err)
		}

		removed, err = s.detachPackages(ctx, tx,
			repository.Where("seller_id = ?", id),
			repository.Where("claim_status = ?", model.Claimed))
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		n, err := s.packages.WithTx(tx).DeleteWhere(ctx,
			repository.Where("seller_id = ?", id),
			repository.Where("claim_status = ?", model.Claimed))
		if err != nil {
			return fmt.Errorf("remove claimed packages: %w", err)
		}
		if int(n) != len(removed) {
			return fmt.Errorf("remove claimed packages: removed %d of %d", n, len(removed))
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Cashout rolled back", zap.Uint("seller_id", id), zap.Error(err))
		return CashoutResult{}, err
	}
	res.RemovedPackages = len(removed)

	s.log.Info("Seller cashed out",
		zap.Uint("seller_id", id),
		zap.String("amount", res.Amount.StringFixed(2)),
		zap.Int("removed_packages", res.RemovedPackages))
	prometheus.RecordEntityOperation("seller", "cashout")
	s.recordDeleted(ctx, adminID, removed)
	return res, nil
}

// detachPackages lists the packages matching scopes and clears the audit
// references to them inside tx, ahead of their deletion.
func (s *SellerService) detachPackages(ctx context.Context, tx *gorm.DB, scopes ...repository.Scope) ([]model.Package, error) {
	pkgs, err := s.packages.WithTx(tx).FindAll(ctx, repository.Query{Scopes: scopes, Order: "id asc"})
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if err := audit.Detach(ctx, tx, pkgs[i].Ref()); err != nil {
			return nil, err
		}
	}
	return pkgs, nil
}

func (s *SellerService) recordDeleted(ctx context.Context, adminID uint, pkgs []model.Package) {
	for i := range pkgs {
		s.audit.Record(ctx, adminID, model.ActionDelete, &pkgs[i], nil)
	}
}
