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
	"gorm.io/gorm/clause"
)

type CourseFilter struct {
	CategorySlug string
	TagSlug      string
	Search       string
	// IDs restricts the result to these courses, typically the hits of a full text search.
	IDs             []uuid.UUID
	IncludeInactive bool
	Page            int
	Limit           int
}

type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	// Update saves course; a non-nil tags replaces the tag set.
	Update(ctx context.Context, course *entity.Course, tags []entity.Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	FindAll(ctx context.Context, filter CourseFilter) ([]*entity.Course, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Count(ctx context.Context, includeInactive bool) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *entity.Course) error {
	tags := course.Tags
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(course).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		return tx.Model(course).Association("Tags").Replace(tags)
	})
	return database.TranslateError(err)
}

func (r *courseRepository) Update(ctx context.Context, course *entity.Course, tags []entity.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(course).Error; err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		if len(tags) == 0 {
			return tx.Model(course).Association("Tags").Clear()
		}
		return tx.Model(course).Association("Tags").Replace(tags)
	})
	return database.TranslateError(err)
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		First(&course, "courses.id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &course, nil
}

// FindAll lists courses newest first.
func (r *courseRepository) FindAll(ctx context.Context, filter CourseFilter) ([]*entity.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Course{})

	if !filter.IncludeInactive {
		query = query.Where("courses.is_active = ?", true)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*entity.Course{}, 0, nil
		}
		query = query.Where("courses.id IN ?", filter.IDs)
	}
	if filter.CategorySlug != "" {
		query = query.Where("courses.category_id IN (?)",
			r.db.Model(&entity.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.TagSlug != "" {
		query = query.Where("courses.id IN (?)",
			r.db.Table("course_tags").
				Select("course_tags.course_id").
				Joins("JOIN tags ON tags.id = course_tags.tag_id").
				Where("tags.slug = ?", filter.TagSlug))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(courses.title) LIKE LOWER(?) OR LOWER(courses.description) LIKE LOWER(?))", pattern, pattern)
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

	var courses []*entity.Course
	if err := query.
		Preload("Category").
		Preload("Tags").
		Order("courses.created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Course{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepository) Count(ctx context.Context, includeInactive bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Course{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Select("Tags").Delete(&entity.Course{ID: id})
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: course %s", apperror.ErrNotFound, id)
	}
	return nil
}
