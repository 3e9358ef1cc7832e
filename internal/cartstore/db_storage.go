package cartstore

import (
	"context"
	"errors"
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStorage keeps snapshots in the cart_snapshots table.
type DBStorage struct {
	db *gorm.DB
}

func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (s *DBStorage) Get(ctx context.Context, key string) (string, error) {
	var snap model.CartSnapshot
	err := s.db.WithContext(ctx).Where("cart_key = ?", key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return snap.Payload, nil
}

func (s *DBStorage) Set(ctx context.Context, key, value string) error {
	snap := model.CartSnapshot{Key: key, Payload: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
}
