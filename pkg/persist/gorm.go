package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionModel is the GORM row holding one serialized collection.
type CollectionModel struct {
	Name      string         `gorm:"primaryKey"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName keeps the table name independent of pluralization rules.
func (CollectionModel) TableName() string {
	return "collections"
}

// GormAdapter persists collections as jsonb rows in Postgres.
type GormAdapter struct {
	db *gorm.DB
}

// NewGormAdapter opens the DB and runs auto-migrations.
func NewGormAdapter(dsn string) (*GormAdapter, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&CollectionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormAdapter{db: db}, nil
}

// NewGormAdapterWithDB wraps an already-open connection; used by tests.
func NewGormAdapterWithDB(db *gorm.DB) (*GormAdapter, error) {
	if err := db.AutoMigrate(&CollectionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormAdapter{db: db}, nil
}

// Load reads one collection row.
func (a *GormAdapter) Load(ctx context.Context, collection string) ([]byte, bool, error) {
	var model CollectionModel
	err := a.db.WithContext(ctx).First(&model, "name = ?", collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load collection %s: %w", collection, err)
	}
	return []byte(model.Data), true, nil
}

// Save upserts one collection row.
func (a *GormAdapter) Save(ctx context.Context, collection string, data []byte) error {
	model := CollectionModel{
		Name:      collection,
		Data:      datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save collection %s: %w", collection, err)
	}
	return nil
}
