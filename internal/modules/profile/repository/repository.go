package repository

import (
	"context"
	"fmt"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository stores one kind of role profile (student or instructor).
type ProfileRepository[T any] interface {
	// Create links a new profile to userID. A nil attrs creates a profile with default values.
	Create(ctx context.Context, userID uuid.UUID, attrs *T) (*T, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*T, error)
	Update(ctx context.Context, profile *T) error
	// Delete is idempotent.
	Delete(ctx context.Context, userID uuid.UUID) error
	WithTx(tx *gorm.DB) ProfileRepository[T]
}

type record[T any] interface {
	*T
	entity.ProfileRecord
}

type profileRepository[T any, P record[T]] struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) ProfileRepository[entity.Student] {
	return &profileRepository[entity.Student, *entity.Student]{db: db}
}

func NewInstructorRepository(db *gorm.DB) ProfileRepository[entity.Instructor] {
	return &profileRepository[entity.Instructor, *entity.Instructor]{db: db}
}

func (r *profileRepository[T, P]) WithTx(tx *gorm.DB) ProfileRepository[T] {
	return &profileRepository[T, P]{db: tx}
}

func (r *profileRepository[T, P]) Create(ctx context.Context, userID uuid.UUID, attrs *T) (*T, error) {
	profile := attrs
	if profile == nil {
		profile = new(T)
	}
	P(profile).SetOwnerID(userID)
	kind := P(profile).ProfileRole()

	db := r.db.WithContext(ctx)

	var owners int64
	if err := db.Model(&entity.User{}).Where("id = ?", userID).Count(&owners).Error; err != nil {
		return nil, err
	}
	if owners == 0 {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, userID)
	}

	var existing int64
	if err := db.Model(new(T)).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s profile already exists for user %s", apperror.ErrDuplicateKey, kind, userID)
	}

	if err := db.Create(profile).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	return profile, nil
}

func (r *profileRepository[T, P]) FindByUserID(ctx context.Context, userID uuid.UUID) (*T, error) {
	profile := new(T)
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(profile).Error; err != nil {
		return nil, fmt.Errorf("%s profile for user %s: %w", P(profile).ProfileRole(), userID, database.TranslateError(err))
	}
	return profile, nil
}

func (r *profileRepository[T, P]) Update(ctx context.Context, profile *T) error {
	result := r.db.WithContext(ctx).Save(profile)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	return nil
}

func (r *profileRepository[T, P]) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(new(T)).Error
}
