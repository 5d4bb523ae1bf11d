// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, page, pageSize int) ([]User, int64, error)
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Count(ctx context.Context, from, to *time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Username = strings.TrimSpace(user.Username)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if common.IsDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("Username is already taken.")
		}
		return err
	}
	return nil
}

// FindByID retrieves a user by their ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByUsername retrieves a user by login name.
func (r *gormRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found.")
		}
		return nil, err
	}
	return &userModel, nil
}

// Update modifies an existing user record in the database.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if common.IsDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("Update failed: username already taken.")
		}
		return err
	}
	return nil
}

// Delete removes a user row. Content owned by the user is removed by the
// callers that own those tables.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("User not found with this ID.")
	}
	return nil
}

// List returns users ordered by registration time, newest first.
func (r *gormRepository) List(ctx context.Context, search string, page, pageSize int) ([]User, int64, error) {
	var users []User
	var total int64

	query := r.db.WithContext(ctx).Model(&User{})
	if s := strings.TrimSpace(search); s != "" {
		query = query.Where("username LIKE ?", "%"+s+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	err := query.Order("registered_time DESC").
		Offset(common.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UsernamesByIDs resolves the given IDs; unknown IDs are absent from the map.
func (r *gormRepository) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []User
	if err := r.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Username
	}
	return out, nil
}

// Count returns the number of users registered in [from, to). Nil bounds are open.
func (r *gormRepository) Count(ctx context.Context, from, to *time.Time) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&User{})
	if from != nil {
		query = query.Where("registered_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("registered_time < ?", *to)
	}
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
