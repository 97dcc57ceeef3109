package audit

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/model"
	"inventory-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func newTestLogger(t *testing.T, opts ...Option) (*Logger, *gorm.DB, *model.Admin, *observer.ObservedLogs) {
	t.Helper()
	db := testutil.NewDB(t)
	admin := &model.Admin{Email: "ops@example.com", Password: "hash"}
	require.NoError(t, db.Create(admin).Error)

	core, logs := observer.New(zap.InfoLevel)
	clock := &testutil.Clock{T: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	l, err := NewLogger(db, zap.New(core), opts...)
	require.NoError(t, err)
	return l, db, admin, logs
}

func TestProductDiff(t *testing.T) {
	before := &model.Product{ID: 1, Name: "Soap", RetailPrice: decimal.NewFromInt(100), Stock: 20}
	after := *before
	after.RetailPrice = decimal.NewFromInt(120)

	changes := ProductTable.Diff(before, &after)
	require.Len(t, changes, 1)
	detail := UpdateDetail("Soap", changes)
	assert.Contains(t, detail, "retail price: ₱100 → ₱120")
	assert.NotContains(t, detail, "stock")
}

func TestDiffNormalisesValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.Product)
		want   []Change
	}{
		{
			name:   "numerically equal prices",
			mutate: func(p *model.Product) { p.RetailPrice = decimal.RequireFromString("100.00") },
		},
		{
			name:   "same calendar day",
			mutate: func(p *model.Product) { p.ExpiryDate = date(2024, 7, 1, 23) },
		},
		{
			name:   "expiry cleared",
			mutate: func(p *model.Product) { p.ExpiryDate = nil },
			want:   []Change{{Field: "expiry date", Old: "2024-07-01", New: "none"}},
		},
		{
			name: "several fields in table order",
			mutate: func(p *model.Product) {
				p.Stock = 0
				p.Name = "Bar Soap"
				p.Description = "lavender"
			},
			want: []Change{
				{Field: "name", Old: "Soap", New: "Bar Soap"},
				{Field: "description", Old: "none", New: "lavender"},
				{Field: "stock", Old: "20", New: "0"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := &model.Product{
				Name:        "Soap",
				RetailPrice: decimal.NewFromInt(100),
				Stock:       20,
				ExpiryDate:  date(2024, 7, 1, 0),
			}
			after := *before
			tt.mutate(&after)
			assert.Equal(t, tt.want, ProductTable.Diff(before, &after))
		})
	}
}

func TestUpdateDetailWithoutChanges(t *testing.T) {
	assert.Equal(t, "Updated Soap (no changes)", UpdateDetail("Soap", nil))
}

func TestTableOnly(t *testing.T) {
	narrowed, err := ProductTable.Only("stock", "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "stock"}, narrowed.Names())

	_, err = ProductTable.Only("colour")
	assert.Error(t, err)
}

func TestNewLoggerRejectsUnknownTrackedField(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewLogger(db, zap.NewNop(), WithTrackedFields(model.KindProduct, "weight"))
	assert.Error(t, err)
}

func TestRecordDetails(t *testing.T) {
	l, db, admin, _ := newTestLogger(t)
	ctx := context.Background()

	product := &model.Product{ID: 1234567, Name: "Soap", RetailPrice: decimal.NewFromInt(100), Stock: 20}
	require.NoError(t, db.Create(product).Error)
	updated := *product
	updated.RetailPrice = decimal.NewFromInt(120)

	unnamed := &model.Product{ID: 7654321, Name: ""}

	assert.True(t, l.Record(ctx, admin.ID, model.ActionCreate, nil, product))
	assert.True(t, l.Record(ctx, admin.ID, model.ActionUpdate, product, &updated))
	assert.True(t, l.Record(ctx, admin.ID, model.ActionUpdate, product, product))
	assert.True(t, l.Record(ctx, admin.ID, model.ActionArchive, nil, product))
	assert.True(t, l.Record(ctx, admin.ID, model.ActionUnarchive, nil, product))
	assert.True(t, l.Record(ctx, admin.ID, model.ActionDelete, unnamed, nil))

	var entries []model.AdminLogActivity
	require.NoError(t, db.Order("id asc").Find(&entries).Error)
	require.Len(t, entries, 6)

	details := make([]string, len(entries))
	for i, e := range entries {
		details[i] = e.ActionDetails
		require.NotNil(t, e.AdminID)
		assert.Equal(t, admin.ID, *e.AdminID)
		assert.True(t, e.Timestamp.Equal(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)))
	}
	assert.Equal(t, []string{
		"Created: Soap",
		"Updated Soap: retail price: ₱100 → ₱120",
		"Updated Soap (no changes)",
		"Archived: Soap",
		"Unarchived: Soap",
		"Deleted: #7654321",
	}, details)

	require.NotNil(t, entries[0].ProductID)
	assert.Equal(t, uint(1234567), *entries[0].ProductID)
	assert.Nil(t, entries[0].PackageID)
	assert.Nil(t, entries[5].ProductID, "deleted records are not referenced")
}

func TestRecordPackageReference(t *testing.T) {
	l, db, admin, _ := newTestLogger(t)
	ctx := context.Background()

	seller := &model.Seller{Name: "Ana"}
	require.NoError(t, db.Create(seller).Error)
	pkg := &model.Package{SellerID: seller.ID, PackageName: "Shoes", BuyerName: "Ben", Size: model.SizeMedium}
	require.NoError(t, db.Create(pkg).Error)

	changed := *pkg
	changed.ClaimStatus = model.Claimed
	pkg.ClaimStatus = model.Unclaimed

	require.True(t, l.Record(ctx, admin.ID, model.ActionUpdate, pkg, &changed))

	var entry model.AdminLogActivity
	require.NoError(t, db.First(&entry).Error)
	require.NotNil(t, entry.PackageID)
	assert.Equal(t, pkg.ID, *entry.PackageID)
	assert.Nil(t, entry.ProductID)
	assert.Equal(t, "Updated Shoes: claim status: unclaimed → claimed", entry.ActionDetails)
}

func TestRecordNeverFailsTheCaller(t *testing.T) {
	l, _, admin, logs := newTestLogger(t)
	ctx := context.Background()

	// Product 999 does not exist, so the foreign key rejects the entry.
	ghost := &model.Product{ID: 999, Name: "Ghost"}
	assert.False(t, l.Record(ctx, admin.ID, model.ActionArchive, nil, ghost))
	assert.False(t, l.Record(ctx, admin.ID, model.ActionUpdate, nil, ghost))
	assert.False(t, l.Record(ctx, admin.ID, model.Action("RENAME"), nil, ghost))
	assert.False(t, l.Record(ctx, admin.ID, model.ActionCreate, nil, nil))

	assert.Equal(t, 4, logs.FilterLevelExact(zap.ErrorLevel).Len())
}

func TestRecordFallsBackToUnknownAdmin(t *testing.T) {
	l, db, _, logs := newTestLogger(t)
	ctx := context.Background()

	gone := &model.Admin{Email: "gone@example.com", Password: "hash"}
	require.NoError(t, db.Create(gone).Error)
	require.NoError(t, db.Delete(gone).Error)

	product := &model.Product{ID: 1111111, Name: "Tea"}
	require.NoError(t, db.Create(product).Error)
	require.True(t, l.Record(ctx, gone.ID, model.ActionCreate, nil, product))

	var entry model.AdminLogActivity
	require.NoError(t, db.First(&entry).Error)
	assert.Nil(t, entry.AdminID)
	require.NotNil(t, entry.ProductID)
	assert.Equal(t, "Created: Tea", entry.ActionDetails)

	recorded := logs.FilterMessage("Audit entry recorded").All()
	require.Len(t, recorded, 1)
	assert.Equal(t, UnknownAdmin, recorded[0].ContextMap()["admin_email"])
}

func TestRecordOutlivesCancelledRequest(t *testing.T) {
	l, db, admin, _ := newTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	product := &model.Product{ID: 1212121, Name: "Coffee"}
	require.NoError(t, db.Create(product).Error)
	require.True(t, l.Record(ctx, admin.ID, model.ActionArchive, nil, product))

	var count int64
	require.NoError(t, db.Model(&model.AdminLogActivity{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTrackedFieldOverride(t *testing.T) {
	l, db, admin, _ := newTestLogger(t, WithTrackedFields(model.KindProduct, "stock"))
	ctx := context.Background()

	product := &model.Product{ID: 2222222, Name: "Salt", RetailPrice: decimal.NewFromInt(10), Stock: 3}
	require.NoError(t, db.Create(product).Error)
	changed := *product
	changed.RetailPrice = decimal.NewFromInt(12)

	require.True(t, l.Record(ctx, admin.ID, model.ActionUpdate, product, &changed))

	var entry model.AdminLogActivity
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "Updated Salt (no changes)", entry.ActionDetails)
}

func TestDetach(t *testing.T) {
	l, db, admin, _ := newTestLogger(t)
	ctx := context.Background()

	product := &model.Product{ID: 3333333, Name: "Sugar"}
	require.NoError(t, db.Create(product).Error)
	require.True(t, l.Record(ctx, admin.ID, model.ActionArchive, nil, product))

	err := db.Delete(&model.Product{}, product.ID).Error
	require.Error(t, err, "the audit reference restricts deletion")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := Detach(ctx, tx, product.Ref()); err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, product.ID).Error
	}))

	var entry model.AdminLogActivity
	require.NoError(t, db.First(&entry).Error)
	assert.Nil(t, entry.ProductID)
	assert.Equal(t, "Archived: Sugar", entry.ActionDetails)
}
