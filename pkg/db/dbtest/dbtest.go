// Package dbtest opens throwaway SQLite databases for repository tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
)

// AllModels lists every persisted model in migration order.
var AllModels = []any{
	&models.Vendor{},
	&models.Product{},
	&models.ProductReview{},
	&models.Order{},
	&models.OrderLineItem{},
	&models.OrderVendorBreakdown{},
	&models.OutboxEvent{},
	&models.OutboxDLQ{},
}

// Open returns an in-memory database with the schema for AllModels. A single
// connection keeps every query on the same in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(AllModels...))
	return conn
}
