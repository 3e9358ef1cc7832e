package service

import (
	"errors"
	"strings"
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeExists = errors.New("coupon code already exists")
	ErrCouponInvalid    = errors.New("coupon is not valid")
)

type CouponInput struct {
	Name          string
	Code          string
	ImageURL      string
	DiscountType  model.DiscountType
	DiscountValue float64
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	Published     bool
}

type CouponService interface {
	List(page, limit int, search string) (pagination.Page[model.Coupon], error)
	GetByID(id uint) (*model.Coupon, error)
	// Redeemable returns the coupon for code if it can be used at now.
	Redeemable(code string, now time.Time) (*model.Coupon, error)
	Create(input CouponInput) (*model.Coupon, error)
	Update(id uint, input CouponInput) (*model.Coupon, error)
	SetPublished(id uint, published bool) error
	Delete(id uint) error
}

type couponService struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponService{couponRepo: couponRepo}
}

func (s *couponService) List(page, limit int, search string) (pagination.Page[model.Coupon], error) {
	page, limit = pagination.Normalize(page, limit)
	coupons, total, err := s.couponRepo.FindAll(repository.CouponFilter{
		Search: search,
		Limit:  limit,
		Offset: pagination.Offset(page, limit),
	})
	if err != nil {
		return pagination.Page[model.Coupon]{}, err
	}
	return pagination.NewPage(coupons, page, limit, total), nil
}

func (s *couponService) GetByID(id uint) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) Redeemable(code string, now time.Time) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponInvalid
		}
		return nil, err
	}
	if !coupon.ActiveAt(now) {
		logger.Debug("Coupon not active", map[string]interface{}{
			"code": coupon.Code,
		})
		return nil, ErrCouponInvalid
	}
	return coupon, nil
}

func applyCoupon(coupon *model.Coupon, input CouponInput) {
	coupon.Name = strings.TrimSpace(input.Name)
	coupon.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	coupon.ImageURL = input.ImageURL
	coupon.DiscountType = input.DiscountType
	coupon.DiscountValue = input.DiscountValue
	coupon.StartsAt = input.StartsAt
	coupon.ExpiresAt = input.ExpiresAt
	coupon.Published = input.Published
}

func (s *couponService) Create(input CouponInput) (*model.Coupon, error) {
	coupon := &model.Coupon{}
	applyCoupon(coupon, input)
	if err := s.couponRepo.Create(coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}
	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return coupon, nil
}

func (s *couponService) Update(id uint, input CouponInput) (*model.Coupon, error) {
	coupon, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	applyCoupon(coupon, input)
	if err := s.couponRepo.Update(coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) SetPublished(id uint, published bool) error {
	if err := s.couponRepo.SetPublished(id, published); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}
	return nil
}

func (s *couponService) Delete(id uint) error {
	if err := s.couponRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}
	return nil
}
