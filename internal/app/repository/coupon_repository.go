package repository

import (
	"strings"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponFilter struct {
	Search string
	Limit  int
	Offset int
}

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindAll(filter CouponFilter) ([]model.Coupon, int64, error)
	FindByID(id uint) (*model.Coupon, error)
	FindByCode(code string) (*model.Coupon, error)
	Update(coupon *model.Coupon) error
	SetPublished(id uint, published bool) error
	Delete(id uint) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	logger.Debug("Creating coupon in database", map[string]interface{}{
		"code": coupon.Code,
	})

	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	return nil
}

func (r *couponRepository) FindAll(filter CouponFilter) ([]model.Coupon, int64, error) {
	query := r.db.Model(&model.Coupon{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count coupons in database", err, nil)
		return nil, 0, err
	}

	var coupons []model.Coupon
	if err := paginate(query, filter.Limit, filter.Offset).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		logger.Error("Failed to find coupons in database", err, nil)
		return nil, 0, err
	}

	logger.Debug("Coupons found in database", map[string]interface{}{
		"count": len(coupons),
		"total": total,
	})
	return coupons, total, nil
}

func (r *couponRepository) FindByID(id uint) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		logger.Error("Failed to find coupon by ID in database", err, map[string]interface{}{
			"coupon_id": id,
		})
		return nil, err
	}
	return &coupon, nil
}

// FindByCode matches codes case-insensitively; codes are stored upper case.
func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&coupon).Error; err != nil {
		logger.Debug("Coupon code not found", map[string]interface{}{
			"code": code,
		})
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) Update(coupon *model.Coupon) error {
	if err := r.db.Save(coupon).Error; err != nil {
		logger.Error("Failed to update coupon in database", err, map[string]interface{}{
			"coupon_id": coupon.ID,
		})
		return err
	}
	return nil
}

func (r *couponRepository) SetPublished(id uint, published bool) error {
	result := r.db.Model(&model.Coupon{}).Where("id = ?", id).Update("published", published)
	if result.Error != nil {
		logger.Error("Failed to set coupon published flag in database", result.Error, map[string]interface{}{
			"coupon_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *couponRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Coupon{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete coupon from database", result.Error, map[string]interface{}{
			"coupon_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
