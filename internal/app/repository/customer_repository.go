package repository

import (
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"gorm.io/gorm"
)

type CustomerFilter struct {
	Search string
	Limit  int
	Offset int
}

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindAll(filter CustomerFilter) ([]model.Customer, int64, error)
	FindByID(id uint) (*model.Customer, error)
	FindByUserID(userID uint) (*model.Customer, error)
	Update(customer *model.Customer) error
	Delete(id uint) error
	Count() (int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(customer *model.Customer) error {
	logger.Debug("Creating customer in database", map[string]interface{}{
		"email": customer.Email,
	})

	if err := r.db.Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"email": customer.Email,
		})
		return err
	}
	return nil
}

func (r *customerRepository) FindAll(filter CustomerFilter) ([]model.Customer, int64, error) {
	logger.Debug("Finding customers in database", map[string]interface{}{
		"search": filter.Search,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})

	query := r.db.Model(&model.Customer{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count customers in database", err, nil)
		return nil, 0, err
	}

	var customers []model.Customer
	if err := paginate(query, filter.Limit, filter.Offset).
		Order("created_at DESC").
		Find(&customers).Error; err != nil {
		logger.Error("Failed to find customers in database", err, nil)
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *customerRepository) FindByID(id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		logger.Error("Failed to find customer by ID in database", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByUserID(userID uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.Where("user_id = ?", userID).First(&customer).Error; err != nil {
		logger.Debug("Customer not found for user", map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Update(customer *model.Customer) error {
	logger.Debug("Updating customer in database", map[string]interface{}{
		"customer_id": customer.ID,
	})

	if err := r.db.Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	return nil
}

func (r *customerRepository) Delete(id uint) error {
	logger.Debug("Deleting customer from database", map[string]interface{}{
		"customer_id": id,
	})

	result := r.db.Delete(&model.Customer{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete customer from database", result.Error, map[string]interface{}{
			"customer_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *customerRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Customer{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count customers", err, nil)
		return 0, err
	}
	return count, nil
}
