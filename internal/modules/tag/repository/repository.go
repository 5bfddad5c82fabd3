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

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	FindByLabel(ctx context.Context, label string) (*entity.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Tag, error)
	FindAll(ctx context.Context) ([]*entity.Tag, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(tag).Error)
}

func (r *tagRepository) FindByLabel(ctx context.Context, label string) (*entity.Tag, error) {
	var tag entity.Tag
	if err := r.db.WithContext(ctx).Where("LOWER(label) = LOWER(?)", strings.TrimSpace(label)).First(&tag).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &tag, nil
}

// FindByIDs fails with NotFound unless every id resolves.
func (r *tagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Tag, error) {
	if len(ids) == 0 {
		return []entity.Tag{}, nil
	}

	var tags []entity.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}

	if len(tags) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: one or more tags do not exist", apperror.ErrNotFound)
	}
	return tags, nil
}

func (r *tagRepository) FindAll(ctx context.Context) ([]*entity.Tag, error) {
	var tags []*entity.Tag
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Tag{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Tag{}, "id = ?", id)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: tag %s", apperror.ErrNotFound, id)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
