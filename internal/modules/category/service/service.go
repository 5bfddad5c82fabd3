package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/modules/category/dto"
	"anoa.com/unitech/internal/modules/category/repository"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/slug"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]*dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{repo: repo, logger: logger}
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	label := strings.TrimSpace(req.Label)
	if err := s.checkLabel(ctx, label, uuid.Nil); err != nil {
		return nil, err
	}

	categorySlug, err := s.uniqueSlug(ctx, label)
	if err != nil {
		return nil, err
	}

	category := &entity.Category{
		Label: label,
		Catalog: entity.Catalog{
			Slug:     categorySlug,
			IsActive: req.IsActive == nil || *req.IsActive,
		},
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created", zap.String("slug", category.Slug))
	return dto.NewCategoryResponse(category), nil
}

// GetAllCategories lists active categories only.
func (s *categoryService) GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]*dto.CategoryResponse, error) {
	categories, err := s.repo.FindAll(ctx, repository.CategoryFilter{Search: filter.Search})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.CategoryResponse, len(categories))
	for i, cat := range categories {
		res[i] = dto.NewCategoryResponse(cat)
	}
	return res, nil
}

// UpdateCategory keeps the slug unless a new one is given explicitly.
func (s *categoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if err := s.checkLabel(ctx, label, id); err != nil {
			return nil, err
		}
		category.Label = label
	}
	if req.Slug != nil {
		base := slug.Make(*req.Slug)
		if base != category.Slug {
			next, err := s.uniqueSlug(ctx, base)
			if err != nil {
				return nil, err
			}
			category.Slug = next
		}
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *categoryService) checkLabel(ctx context.Context, label string, self uuid.UUID) error {
	if label == "" {
		return apperror.Invalid("label", "label is required")
	}
	existing, err := s.repo.FindByLabel(ctx, label)
	if err == nil && existing.ID != self {
		return fmt.Errorf("%w: category %q already exists", apperror.ErrDuplicateKey, label)
	}
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

func (s *categoryService) uniqueSlug(ctx context.Context, source string) (string, error) {
	base := slug.Make(source)
	if base == "" {
		return "", apperror.Invalid("slug", "a slug needs at least one letter or digit")
	}
	return slug.Unique(base, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
}
