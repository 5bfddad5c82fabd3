package dto

import (
	"anoa.com/unitech/internal/entity"
	"github.com/google/uuid"
)

type CreateTagRequest struct {
	Label string `json:"label" binding:"required,max=80"`
}

type TagResponse struct {
	ID      uuid.UUID `json:"id"`
	Label   string    `json:"label"`
	Slug    string    `json:"slug"`
	Display string    `json:"display"`
}

func NewTagResponse(tag *entity.Tag) TagResponse {
	return TagResponse{
		ID:      tag.ID,
		Label:   tag.Label,
		Slug:    tag.Slug,
		Display: tag.String(),
	}
}
