package database

import (
	"testing"

	"pantry-chef/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenMemoryMigrates(t *testing.T) {
	db, err := Open(config.StoreConfig{LogLevel: "silent"}, &widget{})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&widget{Name: "whisk"}).Error)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("SILENT"))
	assert.Equal(t, logger.Error, logLevel("error"))
	assert.Equal(t, logger.Info, logLevel("debug"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
