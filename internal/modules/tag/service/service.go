package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/modules/tag/dto"
	"anoa.com/unitech/internal/modules/tag/repository"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/slug"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TagService interface {
	CreateTag(ctx context.Context, req dto.CreateTagRequest) (*dto.TagResponse, error)
	GetAllTags(ctx context.Context) ([]dto.TagResponse, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
}

type tagService struct {
	repo   repository.TagRepository
	logger *zap.Logger
}

func NewTagService(repo repository.TagRepository, logger *zap.Logger) TagService {
	return &tagService{repo: repo, logger: logger}
}

func (s *tagService) CreateTag(ctx context.Context, req dto.CreateTagRequest) (*dto.TagResponse, error) {
	label := strings.TrimPrefix(strings.TrimSpace(req.Label), "#")
	if label == "" {
		return nil, apperror.Invalid("label", "label is required")
	}

	if _, err := s.repo.FindByLabel(ctx, label); err == nil {
		return nil, fmt.Errorf("%w: tag %q already exists", apperror.ErrDuplicateKey, label)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	base := slug.Make(label)
	if base == "" {
		return nil, apperror.Invalid("slug", "a slug needs at least one letter or digit")
	}
	tagSlug, err := slug.Unique(base, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}

	tag := &entity.Tag{
		Label:   label,
		Catalog: entity.Catalog{Slug: tagSlug, IsActive: true},
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}

	res := dto.NewTagResponse(tag)
	return &res, nil
}

func (s *tagService) GetAllTags(ctx context.Context) ([]dto.TagResponse, error) {
	tags, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]dto.TagResponse, len(tags))
	for i, tag := range tags {
		res[i] = dto.NewTagResponse(tag)
	}
	return res, nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tag deleted", zap.String("tag_id", id.String()))
	return nil
}
