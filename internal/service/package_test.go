package service

import (
	"context"
	"testing"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePackageUnknownSeller(t *testing.T) {
	e := newEnv(t)
	_, err := e.packages.Create(context.Background(), e.admin.ID, PackageInput{
		SellerID:    404,
		PackageName: "Shoes",
		BuyerName:   "Ben",
		Size:        model.SizeSmall,
	})
	assert.ErrorIs(t, err, repository.ErrReferenceViolation)
	assert.Empty(t, e.logDetails(t))
}

func TestCreatePackageDefaults(t *testing.T) {
	e := newEnv(t)
	seller := newSeller(t, e)

	p := newPackage(t, e, seller.ID, "Shoes", 500, "")
	assert.Equal(t, model.Unclaimed, p.ClaimStatus)
	assert.Equal(t, model.PaymentUnpaid, p.PaymentStatus)
	assert.Equal(t, model.MethodCash, p.PaymentMethod)
	assert.True(t, p.DropOffDate.Equal(startOfDay(e.clock.T)))
	assert.True(t, balance(t, e, seller.ID).IsZero())
}

func TestPackageValidation(t *testing.T) {
	e := newEnv(t)
	seller := newSeller(t, e)
	valid := PackageInput{SellerID: seller.ID, PackageName: "Shoes", BuyerName: "Ben", Size: model.SizeLarge}

	tests := []struct {
		name   string
		mutate func(in *PackageInput)
	}{
		{"bad size", func(in *PackageInput) { in.Size = "XL" }},
		{"bad payment status", func(in *PackageInput) { in.PaymentStatus = "partial" }},
		{"bad payment method", func(in *PackageInput) { in.PaymentMethod = "card" }},
		{"bad claim status", func(in *PackageInput) { in.ClaimStatus = "lost" }},
		{"negative price", func(in *PackageInput) { in.Price = decimal.NewFromInt(-1) }},
		{"negative fee", func(in *PackageInput) { in.HandlingFee = decimal.NewFromInt(-1) }},
		{"missing buyer", func(in *PackageInput) { in.BuyerName = "" }},
		{"missing seller", func(in *PackageInput) { in.SellerID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := e.packages.Create(context.Background(), e.admin.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdatePackageMovesBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := newSeller(t, e)
	p := newPackage(t, e, seller.ID, "Shoes", 500, model.Unclaimed)

	in := PackageInput{
		SellerID:      seller.ID,
		PackageName:   "Shoes",
		BuyerName:     "Ben",
		DropOffDate:   p.DropOffDate,
		Size:          model.SizeMedium,
		Price:         decimal.NewFromInt(500),
		HandlingFee:   decimal.NewFromInt(20),
		PaymentStatus: model.PaymentPaid,
		ClaimStatus:   model.Claimed,
	}
	_, err := e.packages.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)
	assert.True(t, balance(t, e, seller.ID).Equal(decimal.NewFromInt(500)))

	in.ClaimStatus = model.Unclaimed
	_, err = e.packages.Update(ctx, e.admin.ID, p.ID, in)
	require.NoError(t, err)
	assert.True(t, balance(t, e, seller.ID).IsZero())

	details := e.logDetails(t)
	require.Len(t, details, 3)
	assert.Equal(t, "Updated Shoes: payment status: unpaid → paid, claim status: unclaimed → claimed", details[1])
	assert.Equal(t, "Updated Shoes: claim status: claimed → unclaimed", details[2])
}

func TestPackageArchiveLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := newSeller(t, e)
	p := newPackage(t, e, seller.ID, "Shoes", 500, model.Unclaimed)

	archived, err := e.packages.Archive(ctx, e.admin.ID, p.ID, "picked up elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "picked up elsewhere", archived.ArchiveReason)

	_, err = e.packages.Unarchive(ctx, e.admin.ID, p.ID)
	require.NoError(t, err)
	_, err = e.packages.Archive(ctx, e.admin.ID, p.ID, "")
	require.NoError(t, err)
	_, err = e.packages.Purge(ctx, e.admin.ID, p.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Created: Shoes",
		"Archived: Shoes",
		"Unarchived: Shoes",
		"Archived: Shoes",
		"Deleted: Shoes",
	}, e.logDetails(t))
}
