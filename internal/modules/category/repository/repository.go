package repository

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryFilter struct {
	Search          string
	IncludeInactive bool
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	Update(ctx context.Context, category *entity.Category) error
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	FindByLabel(ctx context.Context, label string) (*entity.Category, error)
	FindAll(ctx context.Context, filter CategoryFilter) ([]*entity.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	return database.TranslateError(r.db.WithContext(ctx).Save(category).Error)
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &category, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &category, nil
}

func (r *categoryRepository) FindByLabel(ctx context.Context, label string) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).Where("LOWER(label) = LOWER(?)", strings.TrimSpace(label)).First(&category).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &category, nil
}

// FindAll lists categories newest first, then by label.
func (r *categoryRepository) FindAll(ctx context.Context, filter CategoryFilter) ([]*entity.Category, error) {
	var categories []*entity.Category
	query := r.db.WithContext(ctx)

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(label) LIKE LOWER(?)", "%"+search+"%")
	}

	if err := query.Order("created_at DESC").Order("label ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the category; its courses go with it.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Category{}, "id = ?", id)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: category %s", apperror.ErrNotFound, id)
	}
	return nil
}
