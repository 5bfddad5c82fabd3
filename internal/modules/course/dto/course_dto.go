package dto

import (
	"time"

	"anoa.com/unitech/internal/entity"
	categoryDto "anoa.com/unitech/internal/modules/category/dto"
	tagDto "anoa.com/unitech/internal/modules/tag/dto"
	commonDto "anoa.com/unitech/pkg/dto"
	"github.com/google/uuid"
)

type CreateCourseInput struct {
	CategoryID  string   `json:"category_id" form:"category_id" binding:"required"`
	Title       string   `json:"title" form:"title" binding:"required,max=100"`
	Description string   `json:"description" form:"description" binding:"required"`
	TagIDs      []string `json:"tag_ids" form:"tag_ids"`
	IsActive    *bool    `json:"is_active" form:"is_active"`
}

// UpdateCourseInput leaves nil fields alone. A non-nil TagIDs replaces the tag set, an empty
// one clears it.
type UpdateCourseInput struct {
	CategoryID  *string  `json:"category_id" form:"category_id"`
	Title       *string  `json:"title" form:"title" binding:"omitempty,max=100"`
	Description *string  `json:"description" form:"description"`
	TagIDs      []string `json:"tag_ids" form:"tag_ids"`
	IsActive    *bool    `json:"is_active" form:"is_active"`
}

type CourseQuery struct {
	Category string `form:"category"`
	Tag      string `form:"tag"`
	Search   string `form:"search"`
	commonDto.PageQuery
}

type CourseResponse struct {
	ID          uuid.UUID                     `json:"id"`
	Slug        string                        `json:"slug"`
	Title       string                        `json:"title"`
	Description string                        `json:"description"`
	ImageURL    *string                       `json:"image_url"`
	IsActive    bool                          `json:"is_active"`
	Category    *categoryDto.CategoryResponse `json:"category"`
	Tags        []tagDto.TagResponse          `json:"tags"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

type CourseListResponse struct {
	Data []*CourseResponse        `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

func NewCourseResponse(course *entity.Course) *CourseResponse {
	res := &CourseResponse{
		ID:          course.ID,
		Slug:        course.Slug,
		Title:       course.Title,
		Description: course.Description,
		ImageURL:    course.ImageURL,
		IsActive:    course.IsActive,
		Category:    categoryDto.NewCategoryResponse(course.Category),
		Tags:        make([]tagDto.TagResponse, len(course.Tags)),
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
	for i := range course.Tags {
		res.Tags[i] = tagDto.NewTagResponse(&course.Tags[i])
	}
	return res
}
