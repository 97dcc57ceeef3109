package service

import (
	"context"
	"errors"
	"testing"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSeller(t *testing.T, e *env) *model.Seller {
	t.Helper()
	s, err := e.sellers.Create(context.Background(), SellerInput{Name: "Ana", Phone: "0917", Email: "ana@example.com"})
	require.NoError(t, err)
	return s
}

func newPackage(t *testing.T, e *env, sellerID uint, name string, price int64, claim model.ClaimStatus) *model.Package {
	t.Helper()
	p, err := e.packages.Create(context.Background(), e.admin.ID, PackageInput{
		SellerID:    sellerID,
		PackageName: name,
		BuyerName:   "Ben",
		Size:        model.SizeMedium,
		Price:       decimal.NewFromInt(price),
		HandlingFee: decimal.NewFromInt(20),
		ClaimStatus: claim,
	})
	require.NoError(t, err)
	return p
}

func balance(t *testing.T, e *env, id uint) decimal.Decimal {
	t.Helper()
	s, err := e.sellers.Get(context.Background(), id)
	require.NoError(t, err)
	return s.Balance
}

func TestCashout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := newSeller(t, e)

	claimed1 := newPackage(t, e, seller.ID, "Shoes", 500, model.Claimed)
	claimed2 := newPackage(t, e, seller.ID, "Bag", 250, model.Claimed)
	waiting := newPackage(t, e, seller.ID, "Hat", 100, model.Unclaimed)
	assert.True(t, balance(t, e, seller.ID).Equal(decimal.NewFromInt(750)))

	res, err := e.sellers.Cashout(ctx, e.admin.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, 2, res.RemovedPackages)
	assert.True(t, balance(t, e, seller.ID).IsZero())

	_, err = e.packages.Get(ctx, claimed1.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = e.packages.Get(ctx, claimed2.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = e.packages.Get(ctx, waiting.ID)
	assert.NoError(t, err)

	details := e.logDetails(t)
	assert.Contains(t, details, "Deleted: Shoes")
	assert.Contains(t, details, "Deleted: Bag")
}

func TestCashoutIsAtomic(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := newSeller(t, e)
	newPackage(t, e, seller.ID, "Shoes", 500, model.Claimed)
	newPackage(t, e, seller.ID, "Bag", 250, model.Claimed)
	logsBefore := len(e.logDetails(t))

	boom := errors.New("connection lost")
	require.NoError(t, e.db.Callback().Delete().Before("gorm:delete").Register("test:fail_package_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "packages" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := e.sellers.Cashout(ctx, e.admin.ID, seller.ID)
	require.ErrorIs(t, err, boom)

	assert.True(t, balance(t, e, seller.ID).Equal(decimal.NewFromInt(750)), "balance reset is rolled back")
	page, err := e.packages.List(ctx, PackageFilter{SellerID: seller.ID, ClaimStatus: model.Claimed}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)

	var attached int64
	require.NoError(t, e.db.Model(&model.AdminLogActivity{}).Where("package_id IS NOT NULL").Count(&attached).Error)
	assert.Equal(t, int64(2), attached, "detached audit references are rolled back")
	assert.Len(t, e.logDetails(t), logsBefore)
}

func TestCashoutUnknownSeller(t *testing.T) {
	e := newEnv(t)
	_, err := e.sellers.Cashout(context.Background(), e.admin.ID, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCashoutWithoutClaimedPackages(t *testing.T) {
	e := newEnv(t)
	seller := newSeller(t, e)
	newPackage(t, e, seller.ID, "Hat", 100, model.Unclaimed)

	res, err := e.sellers.Cashout(context.Background(), e.admin.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
	assert.Zero(t, res.RemovedPackages)
}

func TestDeleteSellerCascadesPackages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := newSeller(t, e)
	pkg := newPackage(t, e, seller.ID, "Shoes", 500, model.Unclaimed)

	require.NoError(t, e.sellers.Delete(ctx, e.admin.ID, seller.ID))

	_, err := e.packages.Get(ctx, pkg.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []string{"Created: Shoes", "Deleted: Shoes"}, e.logDetails(t))

	assert.ErrorIs(t, e.sellers.Delete(ctx, e.admin.ID, seller.ID), repository.ErrNotFound)
}

func TestSellerValidation(t *testing.T) {
	e := newEnv(t)
	_, err := e.sellers.Create(context.Background(), SellerInput{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)
}
