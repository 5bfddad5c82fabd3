package dto

import (
	"time"

	"anoa.com/unitech/internal/entity"
	"github.com/google/uuid"
)

type CreateCategoryRequest struct {
	Label    string `json:"label" binding:"required,max=80"`
	IsActive *bool  `json:"is_active"`
}

type UpdateCategoryRequest struct {
	Label    *string `json:"label" binding:"omitempty,max=80"`
	Slug     *string `json:"slug" binding:"omitempty,max=120"`
	IsActive *bool   `json:"is_active"`
}

type CategoryFilter struct {
	Search string `form:"search"`
}

type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCategoryResponse(category *entity.Category) *CategoryResponse {
	if category == nil {
		return nil
	}
	return &CategoryResponse{
		ID:        category.ID,
		Label:     category.Label,
		Slug:      category.Slug,
		IsActive:  category.IsActive,
		CreatedAt: category.CreatedAt,
	}
}
