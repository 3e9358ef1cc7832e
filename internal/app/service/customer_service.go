package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"gorm.io/gorm"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerInput struct {
	Name      string
	Email     string
	Phone     string
	Address   string
	StoreName string
	EIN       string
}

type CustomerService interface {
	List(page, limit int, search string) (pagination.Page[model.Customer], error)
	GetByID(id uint) (*model.Customer, error)
	GetByUserID(userID uint) (*model.Customer, error)
	Update(ctx context.Context, id uint, input CustomerInput) (*model.Customer, error)
	Delete(ctx context.Context, id uint) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	profiles     ProfileService
}

func NewCustomerService(customerRepo repository.CustomerRepository, profiles ProfileService) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		profiles:     profiles,
	}
}

func (s *customerService) List(page, limit int, search string) (pagination.Page[model.Customer], error) {
	page, limit = pagination.Normalize(page, limit)
	customers, total, err := s.customerRepo.FindAll(repository.CustomerFilter{
		Search: search,
		Limit:  limit,
		Offset: pagination.Offset(page, limit),
	})
	if err != nil {
		return pagination.Page[model.Customer]{}, err
	}
	return pagination.NewPage(customers, page, limit, total), nil
}

func (s *customerService) GetByID(id uint) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetByUserID(userID uint) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id uint, input CustomerInput) (*model.Customer, error) {
	customer, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = normalizeEmail(input.Email)
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.StoreName = input.StoreName
	customer.EIN = input.EIN
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	s.invalidate(ctx, customer)

	logger.Info("Customer updated", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id uint) error {
	customer, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx, customer)

	logger.Info("Customer deleted", map[string]interface{}{
		"customer_id": id,
	})
	return nil
}

func (s *customerService) invalidate(ctx context.Context, customer *model.Customer) {
	if customer.UserID != nil {
		s.profiles.Invalidate(ctx, *customer.UserID)
	}
}
