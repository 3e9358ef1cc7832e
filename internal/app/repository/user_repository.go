package repository

import (
	"strings"
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"gorm.io/gorm"
)

type StaffFilter struct {
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(user *model.User) error
	CreateWithCustomer(user *model.User, customer *model.Customer) error
	FindByID(id uint) (*model.User, error)
	FindByIDWithCustomer(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindStaff(filter StaffFilter) ([]model.User, int64, error)
	Update(user *model.User) error
	SetPublished(id uint, published bool) error
	TouchLastSignIn(id uint, at time.Time) error
	Delete(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

// CreateWithCustomer inserts the user and its customer profile atomically.
func (r *userRepository) CreateWithCustomer(user *model.User, customer *model.Customer) error {
	logger.Debug("Creating user with customer profile in database", map[string]interface{}{
		"email": user.Email,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		customer.UserID = &user.ID
		return tx.Create(customer).Error
	})
	if err != nil {
		logger.Error("Failed to create user with customer profile in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User with customer profile created in database", map[string]interface{}{
		"user_id":     user.ID,
		"customer_id": customer.ID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.First(&user, id).Error
	if err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	logger.Debug("User found by ID in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &user, nil
}

func (r *userRepository) FindByIDWithCustomer(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID with customer in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.Preload("Customer").First(&user, id).Error
	if err != nil {
		logger.Error("Failed to find user by ID with customer in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	logger.Debug("User with customer found by ID in database", map[string]interface{}{
		"user_id":      user.ID,
		"has_customer": user.Customer != nil,
	})
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		logger.Error("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Debug("User found by email in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &user, nil
}

func (r *userRepository) FindStaff(filter StaffFilter) ([]model.User, int64, error) {
	logger.Debug("Finding staff in database", map[string]interface{}{
		"search": filter.Search,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})

	query := r.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count staff in database", err, nil)
		return nil, 0, err
	}

	var users []model.User
	if err := paginate(query, filter.Limit, filter.Offset).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		logger.Error("Failed to find staff in database", err, nil)
		return nil, 0, err
	}

	logger.Debug("Staff found in database", map[string]interface{}{
		"count": len(users),
		"total": total,
	})
	return users, total, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   user.Email,
		})
		return err
	}

	logger.Debug("User updated in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) SetPublished(id uint, published bool) error {
	logger.Debug("Setting user published flag in database", map[string]interface{}{
		"user_id":   id,
		"published": published,
	})

	if err := r.db.Model(&model.User{}).Where("id = ?", id).
		Update("published", published).Error; err != nil {
		logger.Error("Failed to set user published flag in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) TouchLastSignIn(id uint, at time.Time) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).
		Update("last_sign_in_at", at).Error; err != nil {
		logger.Error("Failed to record sign-in time in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	if err := r.db.Delete(&model.User{}, id).Error; err != nil {
		logger.Error("Failed to delete user from database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	logger.Debug("User deleted from database", map[string]interface{}{
		"user_id": id,
	})
	return nil
}
