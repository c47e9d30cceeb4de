package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/pkg/config"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestCheckoutMigrationsCarryConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_orders.sql": {
			"CREATE TABLE IF NOT EXISTS orders",
			"CHECK (grand_total = subtotal + tax + shipping_fee - discount)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
			"DROP TABLE IF EXISTS orders",
		},
		"*_create_payments.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_reference",
			"ON payments(order_id) WHERE status = 'completed'",
		},
		"*_create_catalog_tables.sql": {
			"stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		},
	}

	for pattern, fragments := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		for _, fragment := range fragments {
			if !strings.Contains(string(data), fragment) {
				t.Errorf("%s missing %q", matches[0], fragment)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Refund Reason!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_refund_reason.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
	assert.Error(t, ValidateDir(t.TempDir()))
}

func TestDialectFor(t *testing.T) {
	d, err := dialectFor(config.DBDriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, goose.DialectSQLite3, d)

	d, err = dialectFor("")
	require.NoError(t, err)
	assert.Equal(t, goose.DialectPostgres, d)

	_, err = dialectFor("mysql")
	assert.Error(t, err)
}

func TestRunRequiresDB(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, config.DBDriverPostgres, DefaultDir, "up"))
}

func TestCreateAtIsExclusive(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "  seed  lagos points ", at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260301090000_seed_lagos_points.sql"), path)

	_, err = createAt(dir, "seed lagos points", at)
	assert.Error(t, err)
}

func TestValidateDirChecksSections(t *testing.T) {
	for name, body := range map[string]string{
		"no down":    "-- +goose Up\nSELECT 1;\n",
		"down first": "-- +goose Down\n-- +goose Up\n",
		"unbalanced": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
	} {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_x.sql"), []byte(body), 0o644))
		assert.Error(t, ValidateDir(dir), name)
	}
}
