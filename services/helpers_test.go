package services

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"food-ordering-api/config"
	"food-ordering-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := config.OpenDB(config.Config{DBDriver: "sqlite", DBDSN: dsn, DBLogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func seedUser(t *testing.T, db *gorm.DB, user models.User, password string) models.User {
	t.Helper()
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if user.FullName == "" {
		user.FullName = "Test Customer"
	}
	if password == "" {
		password = "secret123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user.PasswordHash = string(hash)
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, id uint, name, price string) models.Product {
	t.Helper()
	product := models.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryMainCourses,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
