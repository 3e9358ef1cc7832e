package repository

import (
	"testing"
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Test User",
				Role:         model.RoleCustomer,
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Another User",
				Role:         model.RoleCustomer,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)
			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_CreateWithCustomer(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	user := &model.User{Email: "shop@example.com", PasswordHash: "x", Name: "Shop Owner", Role: model.RoleCustomer}
	customer := &model.Customer{Name: "Shop Owner", Email: "shop@example.com", StoreName: "Corner Shop"}
	require.NoError(t, repo.CreateWithCustomer(user, customer))

	require.NotNil(t, customer.UserID)
	assert.Equal(t, user.ID, *customer.UserID)

	found, err := repo.FindByIDWithCustomer(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Customer)
	assert.Equal(t, "Corner Shop", found.Customer.StoreName)
}

func TestUserRepository_CreateWithCustomer_RollsBack(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	first := &model.User{Email: "a@example.com", PasswordHash: "x", Name: "A", Role: model.RoleCustomer}
	require.NoError(t, repo.CreateWithCustomer(first, &model.Customer{Name: "A"}))

	dup := &model.User{Email: "a@example.com", PasswordHash: "x", Name: "B", Role: model.RoleCustomer}
	assert.Error(t, repo.CreateWithCustomer(dup, &model.Customer{Name: "B"}))

	var customers int64
	testDB.Model(&model.Customer{}).Count(&customers)
	assert.Equal(t, int64(1), customers)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Create(&model.User{Email: "find@example.com", PasswordHash: "x", Name: "Finder"}))

	user, err := repo.FindByEmail("Find@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Finder", user.Name)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindStaff(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Create(&model.User{Email: "alice@example.com", PasswordHash: "x", Name: "Alice", Role: model.RoleAdmin}))
	require.NoError(t, repo.Create(&model.User{Email: "bob@example.com", PasswordHash: "x", Name: "Bob", Role: model.RoleAdmin}))
	require.NoError(t, repo.Create(&model.User{Email: "carol@example.com", PasswordHash: "x", Name: "Carol", Role: model.RoleCustomer}))

	staff, total, err := repo.FindStaff(StaffFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, staff, 2)

	staff, total, err = repo.FindStaff(StaffFilter{Search: "ALI"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Alice", staff[0].Name)

	staff, total, err = repo.FindStaff(StaffFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, staff, 1)
}

func TestUserRepository_SetPublishedAndSignIn(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	user := &model.User{Email: "staff@example.com", PasswordHash: "x", Name: "Staff", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.SetPublished(user.ID, false))
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastSignIn(user.ID, at))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, found.Published)
	require.NotNil(t, found.LastSignInAt)
	assert.True(t, at.Equal(*found.LastSignInAt))
}

func TestUserRepository_Delete(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	user := &model.User{Email: "gone@example.com", PasswordHash: "x", Name: "Gone"}
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.Delete(user.ID))

	_, err := repo.FindByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
