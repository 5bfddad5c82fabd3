package dto

import (
	userDto "anoa.com/unitech/internal/modules/user/dto"
	commonDto "anoa.com/unitech/pkg/dto"
)

type CreateUserInput struct {
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" binding:"required"`
	FirstName       string `json:"first_name" form:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" form:"last_name" binding:"max=150"`
	Role            string `json:"role" form:"role"`
	IsActive        *bool  `json:"is_active" form:"is_active"`
}

type UpdateUserInput struct {
	Email           *string `json:"email" form:"email"`
	FirstName       *string `json:"first_name" form:"first_name" binding:"omitempty,max=150"`
	LastName        *string `json:"last_name" form:"last_name" binding:"omitempty,max=150"`
	Role            *string `json:"role" form:"role"`
	IsActive        *bool   `json:"is_active" form:"is_active"`
	Password        *string `json:"password" form:"password"`
	PasswordConfirm string  `json:"password_confirm" form:"password_confirm"`
}

type UserListQuery struct {
	Role   string `form:"role"`
	Active *bool  `form:"active"`
	Search string `form:"search"`
	commonDto.PageQuery
}

type UserListResponse struct {
	Data []*userDto.UserResponse  `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
