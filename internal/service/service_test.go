package service

import (
	"testing"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/audit"
	"inventory-service/internal/model"
	"inventory-service/internal/testutil"
	"inventory-service/pkg/jwtutil"
	"inventory-service/pkg/qrcode"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	clock    *testutil.Clock
	admin    *model.Admin
	qrDir    string
	products *ProductService
	packages *PackageService
	sellers  *SellerService
	admins   *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &testutil.Clock{T: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	log := zap.NewNop()

	rec, err := audit.NewLogger(db, log, audit.WithClock(clock.Now))
	require.NoError(t, err)

	qrDir := t.TempDir()
	qr, err := qrcode.NewGenerator(qrDir, 64)
	require.NoError(t, err)

	admins := NewAdminService(db, jwtutil.NewSigner("test-secret", time.Hour), log)
	admins.cost = bcrypt.MinCost

	admin := &model.Admin{Email: "ops@example.com", Password: "x"}
	require.NoError(t, db.Create(admin).Error)

	return &env{
		db:       db,
		clock:    clock,
		admin:    admin,
		qrDir:    qrDir,
		products: NewProductService(db, archive.NewProductEngine(db, rec, log, clock.Now), rec, qr, log, clock.Now),
		packages: NewPackageService(db, archive.NewPackageEngine(db, rec, log, clock.Now), rec, log, clock.Now),
		sellers:  NewSellerService(db, rec, log),
		admins:   admins,
	}
}

func (e *env) logDetails(t *testing.T) []string {
	t.Helper()
	var entries []model.AdminLogActivity
	require.NoError(t, e.db.Order("id asc").Find(&entries).Error)
	out := make([]string, len(entries))
	for i, en := range entries {
		out[i] = en.ActionDetails
	}
	return out
}

func days(t time.Time, n int) *time.Time {
	d := t.AddDate(0, 0, n)
	return &d
}
