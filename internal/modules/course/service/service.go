package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/unitech/internal/entity"
	categoryRepo "anoa.com/unitech/internal/modules/category/repository"
	"anoa.com/unitech/internal/modules/course/dto"
	"anoa.com/unitech/internal/modules/course/repository"
	search "anoa.com/unitech/internal/modules/search/service"
	tagRepo "anoa.com/unitech/internal/modules/tag/repository"
	"anoa.com/unitech/pkg/apperror"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/slug"
	"anoa.com/unitech/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const searchHitLimit = 1000

type CourseService interface {
	ListCourses(ctx context.Context, query dto.CourseQuery) (*dto.CourseListResponse, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error)
	CreateCourse(ctx context.Context, input dto.CreateCourseInput, image *commonDto.UploadFile) (*dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, id uuid.UUID, input dto.UpdateCourseInput, image *commonDto.UploadFile) (*dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

type Deps struct {
	Courses      repository.CourseRepository
	Categories   categoryRepo.CategoryRepository
	Tags         tagRepo.TagRepository
	ImageStorage storage.ImageStorage
	// Index is optional; without it search falls back to SQL matching.
	Index  search.CourseIndex
	Logger *zap.Logger
}

type courseService struct {
	repo         repository.CourseRepository
	categories   categoryRepo.CategoryRepository
	tags         tagRepo.TagRepository
	imageStorage storage.ImageStorage
	index        search.CourseIndex
	logger       *zap.Logger
}

func NewCourseService(deps Deps) CourseService {
	return &courseService{
		repo:         deps.Courses,
		categories:   deps.Categories,
		tags:         deps.Tags,
		imageStorage: deps.ImageStorage,
		index:        deps.Index,
		logger:       deps.Logger,
	}
}

func (s *courseService) ListCourses(ctx context.Context, query dto.CourseQuery) (*dto.CourseListResponse, error) {
	filter := repository.CourseFilter{
		CategorySlug: strings.TrimSpace(query.Category),
		TagSlug:      strings.TrimPrefix(strings.TrimSpace(query.Tag), "#"),
		Search:       query.Search,
		Page:         query.Page,
		Limit:        query.Limit,
	}

	if term := strings.TrimSpace(query.Search); term != "" && s.index != nil {
		ids, err := s.index.SearchCourses(ctx, term, searchHitLimit)
		if err != nil {
			s.logger.Warn("course search index unavailable, falling back to SQL", zap.Error(err))
		} else {
			filter.IDs = ids
			filter.Search = ""
		}
	}

	courses, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]*dto.CourseResponse, len(courses))
	for i, course := range courses {
		data[i] = dto.NewCourseResponse(course)
	}

	return &dto.CourseListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

// GetCourse hides inactive courses.
func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, fmt.Errorf("%w: course %s", apperror.ErrNotFound, id)
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) CreateCourse(ctx context.Context, input dto.CreateCourseInput, image *commonDto.UploadFile) (*dto.CourseResponse, error) {
	ve := &apperror.ValidationError{}
	title := strings.TrimSpace(input.Title)
	validateTitle(ve, title)
	description := strings.TrimSpace(input.Description)
	if description == "" {
		ve.Add("description", "description is required")
	}
	categoryID, err := s.resolveCategory(ctx, ve, input.CategoryID)
	if err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, ve, input.TagIDs)
	if err != nil {
		return nil, err
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	courseSlug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		return nil, err
	}

	course := &entity.Course{
		CategoryID:  categoryID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Catalog: entity.Catalog{
			Slug:     courseSlug,
			IsActive: input.IsActive == nil || *input.IsActive,
		},
	}

	if image != nil && image.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, image.Reader, "courses", image.FileName)
		if err != nil {
			return nil, err
		}
		course.ImageURL = &url
	}

	if err := s.repo.Create(ctx, course); err != nil {
		s.discardImage(ctx, course.ImageURL)
		return nil, err
	}

	return s.reloadAndIndex(ctx, course.ID)
}

func (s *courseService) UpdateCourse(ctx context.Context, id uuid.UUID, input dto.UpdateCourseInput, image *commonDto.UploadFile) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &apperror.ValidationError{}
	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
		validateTitle(ve, course.Title)
	}
	if input.Description != nil {
		course.Description = strings.TrimSpace(*input.Description)
		if course.Description == "" {
			ve.Add("description", "description is required")
		}
	}
	if input.CategoryID != nil {
		if course.CategoryID, err = s.resolveCategory(ctx, ve, *input.CategoryID); err != nil {
			return nil, err
		}
		course.Category = nil
	}
	var tags []entity.Tag
	if input.TagIDs != nil {
		if tags, err = s.resolveTags(ctx, ve, input.TagIDs); err != nil {
			return nil, err
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}

	oldImage := course.ImageURL
	if image != nil && image.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, image.Reader, "courses", image.FileName)
		if err != nil {
			return nil, err
		}
		course.ImageURL = &url
	}

	if err := s.repo.Update(ctx, course, tags); err != nil {
		if course.ImageURL != oldImage {
			s.discardImage(ctx, course.ImageURL)
		}
		return nil, err
	}
	if course.ImageURL != oldImage {
		s.discardImage(ctx, oldImage)
	}

	return s.reloadAndIndex(ctx, course.ID)
}

func (s *courseService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.discardImage(ctx, course.ImageURL)
	if s.index != nil {
		if err := s.index.DeleteCourse(ctx, id); err != nil {
			s.logger.Warn("failed to remove course from search index", zap.String("course_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

// reloadAndIndex returns the stored course and pushes it to the search index. Indexing is best
// effort.
func (s *courseService) reloadAndIndex(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.IndexCourse(ctx, course); err != nil {
			s.logger.Warn("failed to index course", zap.String("course_id", id.String()), zap.Error(err))
		}
	}
	return dto.NewCourseResponse(course), nil
}

// resolveCategory records an unusable category id on ve; only storage failures are returned.
func (s *courseService) resolveCategory(ctx context.Context, ve *apperror.ValidationError, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		ve.Add("category_id", "category_id must be a valid UUID")
		return uuid.Nil, nil
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			ve.Add("category_id", "category does not exist")
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (s *courseService) resolveTags(ctx context.Context, ve *apperror.ValidationError, raw []string) ([]entity.Tag, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			ve.Add("tag_ids", "tag_ids must contain valid UUIDs")
			return nil, nil
		}
		ids = append(ids, id)
	}

	tags, err := s.tags.FindByIDs(ctx, ids)
	if errors.Is(err, apperror.ErrNotFound) {
		ve.Add("tag_ids", "one or more tags do not exist")
		return nil, nil
	}
	return tags, err
}

func validateTitle(ve *apperror.ValidationError, title string) {
	switch {
	case title == "":
		ve.Add("title", "title is required")
	case utf8.RuneCountInString(title) > 100:
		ve.Add("title", "title must be at most 100 characters")
	}
}

func (s *courseService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", apperror.Invalid("title", "title needs at least one letter or digit")
	}
	return slug.Unique(base, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
}

func (s *courseService) discardImage(ctx context.Context, url *string) {
	if url == nil || s.imageStorage == nil {
		return
	}
	if err := s.imageStorage.DeleteImage(ctx, *url); err != nil {
		s.logger.Warn("failed to delete course image", zap.String("url", *url), zap.Error(err))
	}
}
