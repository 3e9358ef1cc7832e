package db

import (
	"errors"

	"github.com/zorvex/zorvex-backend/config"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Customer{},
		&model.Category{},
		&model.Product{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.PasswordReset{},
		&model.CartSnapshot{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedAdmin creates the first staff account when no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg config.AdminSeedConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Debug("Admin seed skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Admin already exists, skipping seed", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	if problem := util.PasswordProblem(cfg.Password); problem != "" {
		return errors.New("ADMIN_PASSWORD: " + problem)
	}
	hash, err := util.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        cfg.Email,
		PasswordHash: hash,
		Name:         cfg.Name,
		Role:         model.RoleAdmin,
		Published:    true,
	}
	if err := db.Create(admin).Error; err != nil {
		logger.Error("Failed to seed admin", err, map[string]interface{}{
			"email": cfg.Email,
		})
		return err
	}

	logger.Info("Admin account seeded", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return nil
}
