package service

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/model"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func soap(e *env) ProductInput {
	return ProductInput{
		Name:        "Soap",
		RetailPrice: decimal.NewFromInt(100),
		BuyingPrice: decimal.NewFromInt(70),
		Stock:       20,
		Category:    "Toiletries",
		ExpiryDate:  days(e.clock.T, 30),
	}
}

func TestCreateProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.ID, uint(minProductID))
	assert.LessOrEqual(t, p.ID, uint(maxProductID))
	assert.Equal(t, "ID:"+strconv.FormatUint(uint64(p.ID), 10)+"|Name:Soap", p.QRPayload)
	_, err = os.Stat(p.QRPath)
	assert.NoError(t, err)

	assert.Equal(t, []string{"Created: Soap"}, e.logDetails(t))
}

func TestCreateProductValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *ProductInput)
	}{
		{"empty name", func(in *ProductInput) { in.Name = "  " }},
		{"negative retail price", func(in *ProductInput) { in.RetailPrice = decimal.NewFromInt(-1) }},
		{"negative buying price", func(in *ProductInput) { in.BuyingPrice = decimal.NewFromInt(-1) }},
		{"negative stock", func(in *ProductInput) { in.Stock = -3 }},
		{"expiry today plus five", func(in *ProductInput) { in.ExpiryDate = days(e.clock.T, 5) }},
		{"expiry in the past", func(in *ProductInput) { in.ExpiryDate = days(e.clock.T, -1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := soap(e)
			tt.mutate(&in)
			_, err := e.products.Create(ctx, e.admin.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	count, err := repository.New[model.Product](e.db).Count(ctx, repository.Query{})
	require.NoError(t, err)
	assert.Zero(t, count, "rejected products are never inserted")
	assert.Empty(t, e.logDetails(t))

	in := soap(e)
	in.ExpiryDate = days(e.clock.T, 6)
	_, err = e.products.Create(ctx, e.admin.ID, in)
	assert.NoError(t, err)
}

func TestCreateProductRejectsDuplicateName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)
	_, err = e.products.Create(ctx, e.admin.ID, soap(e))
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestCreateProductRetriesIDCollision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ids := []uint{1234567, 1234567, 7654321}
	e.products.newID = func() uint {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)
	in := soap(e)
	in.Name = "Shampoo"
	second, err := e.products.Create(ctx, e.admin.ID, in)
	require.NoError(t, err)

	assert.Equal(t, uint(1234567), first.ID)
	assert.Equal(t, uint(7654321), second.ID)
}

func TestUpdateProductAuditsDiff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)

	in := soap(e)
	in.RetailPrice = decimal.NewFromInt(120)
	updated, err := e.products.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.RetailPrice.Equal(decimal.NewFromInt(120)))

	_, err = e.products.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)

	details := e.logDetails(t)
	require.Len(t, details, 3)
	assert.Equal(t, "Updated Soap: retail price: ₱100 → ₱120", details[1])
	assert.Equal(t, "Updated Soap (no changes)", details[2])

	var entry model.AdminLogActivity
	require.NoError(t, e.db.Order("id desc").First(&entry).Error)
	require.NotNil(t, entry.ProductID)
	assert.Equal(t, p.ID, *entry.ProductID)
	assert.Equal(t, model.ActionUpdate, entry.Action)
}

func TestUpdateProductKeepsExistingExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)

	// A month later the stored expiry is inside the shelf window, but an
	// unchanged date is not re-validated.
	e.clock.Advance(28 * 24 * time.Hour)
	in := soap(e)
	in.ExpiryDate = p.ExpiryDate
	in.Stock = 3
	_, err = e.products.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)

	in.ExpiryDate = days(e.clock.T, 2)
	_, err = e.products.Update(ctx, e.admin.ID, p.ID, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductDeleteLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := soap(e)
	in.Stock = 5
	p, err := e.products.Create(ctx, e.admin.ID, in)
	require.NoError(t, err)

	_, err = e.products.Purge(ctx, e.admin.ID, p.ID)
	assert.ErrorIs(t, err, archive.ErrNotArchived)

	_, err = e.products.Archive(ctx, e.admin.ID, p.ID, "")
	require.NoError(t, err)
	_, err = e.products.Purge(ctx, e.admin.ID, p.ID)
	assert.ErrorIs(t, err, archive.ErrStockNotEmpty)

	in.Stock = 0
	_, err = e.products.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)
	_, err = e.products.Purge(ctx, e.admin.ID, p.ID)
	require.NoError(t, err)

	_, err = e.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = os.Stat(p.QRPath)
	assert.True(t, os.IsNotExist(err), "the QR image goes with the product")

	assert.Equal(t, []string{
		"Created: Soap",
		"Archived: Soap",
		"Updated Soap: stock: 5 → 0",
		"Deleted: Soap",
	}, e.logDetails(t))
}

func TestListProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, name := range []string{"Bar Soap", "Liquid Soap", "Rice"} {
		in := soap(e)
		in.Name = name
		_, err := e.products.Create(ctx, e.admin.ID, in)
		require.NoError(t, err)
	}

	page, err := e.products.List(ctx, ProductFilter{Search: "SOAP"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)

	archived := true
	page, err = e.products.List(ctx, ProductFilter{Archived: &archived}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestRenameFailureKeepsStoredQRImage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.products.Create(ctx, e.admin.ID, soap(e))
	require.NoError(t, err)
	original, err := os.ReadFile(p.QRPath)
	require.NoError(t, err)

	boom := errors.New("connection lost")
	require.NoError(t, e.db.Callback().Update().Before("gorm:update").Register("test:fail_product_save", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" {
			_ = tx.AddError(boom)
		}
	}))

	in := soap(e)
	in.Name = "Shampoo"
	_, err = e.products.Update(ctx, e.admin.ID, p.ID, in)
	require.ErrorIs(t, err, boom)

	stored, err := e.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soap", stored.Name)
	current, err := os.ReadFile(stored.QRPath)
	require.NoError(t, err)
	assert.Equal(t, original, current, "the image still encodes the stored name")
}
