package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Document is one stored collection.
type Document struct {
	Collection string    `gorm:"primaryKey;size:255"`
	Payload    []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Document) TableName() string { return "documents" }

// GormStore keeps documents in a PostgreSQL table.
type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects to PostgreSQL with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the documents table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Document{})
}

func (s *GormStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, "collection = ?", collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Payload, nil
}

func (s *GormStore) Put(ctx context.Context, collection string, payload []byte) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	doc := Document{Collection: collection, Payload: payload, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&doc).Error
}

func (s *GormStore) Delete(ctx context.Context, collection string) error {
	return s.db.WithContext(ctx).Delete(&Document{}, "collection = ?", collection).Error
}
