package store

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/viralmux/viralmux/model"
	"github.com/viralmux/viralmux/utils"
)

// PostgresStore persists stories in postgres through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the connection and migrates the story table.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&model.Story{}); err != nil {
		return nil, fmt.Errorf("migrate story table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromEnv reads the connection string from DB_CONNECTION.
func NewPostgresStoreFromEnv() (*PostgresStore, error) {
	dsn := os.Getenv("DB_CONNECTION")
	if dsn == "" {
		return nil, fmt.Errorf("DB_CONNECTION is not set")
	}
	return NewPostgresStore(dsn)
}

func (s *PostgresStore) Exists(ctx context.Context, key model.DedupKey) (bool, error) {
	var count int64
	// Unscoped so that a soft deleted story still blocks re-ingestion.
	res := s.db.WithContext(ctx).Unscoped().Model(&model.Story{}).
		Where("dedup_id = ?", key.String()).Count(&count)
	if res.Error != nil {
		return false, utils.ImmediatePrintError(res.Error)
	}
	return count > 0, nil
}

func (s *PostgresStore) Save(ctx context.Context, story *model.Story) error {
	return utils.ImmediatePrintError(s.db.WithContext(ctx).Create(story).Error)
}

func (s *PostgresStore) GetByDedupId(ctx context.Context, dedupId string) (*model.Story, error) {
	var story model.Story
	res := s.db.WithContext(ctx).Where("dedup_id = ?", dedupId).First(&story)
	if res.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &story, nil
}
