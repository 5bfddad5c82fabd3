package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedEvent is handed to save hooks after a user row was written.
type SavedEvent struct {
	User    *entity.User
	Created bool
}

// SaveHook runs inside the transaction that wrote the user. Returning an error rolls it back.
type SaveHook func(ctx context.Context, tx *gorm.DB, event SavedEvent) error

// DeleteHook runs inside the delete transaction before the user row is removed.
type DeleteHook func(ctx context.Context, tx *gorm.DB, user *entity.User) error

type Option func(*userRepository)

func WithSaveHook(hook SaveHook) Option {
	return func(r *userRepository) { r.saveHooks = append(r.saveHooks, hook) }
}

func WithDeleteHook(hook DeleteHook) Option {
	return func(r *userRepository) { r.deleteHooks = append(r.deleteHooks, hook) }
}

type UserFilter struct {
	Role     entity.Role
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByResetCode(ctx context.Context, code string) (*entity.User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[entity.Role]int64, error)
}

type userRepository struct {
	db          *gorm.DB
	saveHooks   []SaveHook
	deleteHooks []DeleteHook
}

func NewUserRepository(db *gorm.DB, opts ...Option) UserRepository {
	r := &userRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByRole reports every known role, including those without users.
func (r *userRepository) CountByRole(ctx context.Context) (map[entity.Role]int64, error) {
	var rows []struct {
		Role  entity.Role
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entity.Role]int64, len(entity.Roles))
	for _, role := range entity.Roles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return database.TranslateError(err)
		}
		return r.emitSaved(ctx, tx, SavedEvent{User: user, Created: true})
	})
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: user %s", apperror.ErrNotFound, user.ID)
		}

		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return database.TranslateError(err)
		}
		return r.emitSaved(ctx, tx, SavedEvent{User: user, Created: false})
	})
}

func (r *userRepository) emitSaved(ctx context.Context, tx *gorm.DB, event SavedEvent) error {
	for _, hook := range r.saveHooks {
		if err := hook(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
	}
	return nil
}

func (r *userRepository) withProfiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Student").
		Preload("Instructor")
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.withProfiles(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.withProfiles(ctx).Where("email = ?", entity.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByResetCode(ctx context.Context, code string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("reset_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})

	if filter.Role != "" {
		query = query.Scopes(ScopeRole(filter.Role))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"(LOWER(email) LIKE LOWER(?) OR LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?))",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var users []*entity.User
	if err := query.
		Preload("Student").
		Preload("Instructor").
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	var users []*entity.User
	if err := r.withProfiles(ctx).
		Scopes(ScopeRole(role)).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entity.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return database.TranslateError(err)
		}

		for _, hook := range r.deleteHooks {
			if err := hook(ctx, tx, &user); err != nil {
				return err
			}
		}

		return tx.Delete(&entity.User{}, "id = ?", id).Error
	})
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}
