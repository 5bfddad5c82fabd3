package repository

import (
	"context"

	"anoa.com/unitech/internal/entity"
	"gorm.io/gorm"
)

// ScopeRole narrows a users query to one role tag.
func ScopeRole(role entity.Role) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("users.role = ?", role)
	}
}

// RoleView is a role-bound handle over the user repository. Reads only see users of its role and
// writes stamp the role before delegating.
type RoleView struct {
	role  entity.Role
	users UserRepository
}

func ViewFor(role entity.Role, users UserRepository) *RoleView {
	return &RoleView{role: role, users: users}
}

func Students(users UserRepository) *RoleView {
	return ViewFor(entity.RoleStudent, users)
}

func Instructors(users UserRepository) *RoleView {
	return ViewFor(entity.RoleInstructor, users)
}

func (v *RoleView) Role() entity.Role {
	return v.role
}

func (v *RoleView) List(ctx context.Context) ([]*entity.User, error) {
	return v.users.ListByRole(ctx, v.role)
}

func (v *RoleView) Create(ctx context.Context, user *entity.User) error {
	user.Role = v.role
	return v.users.Create(ctx, user)
}

func (v *RoleView) Update(ctx context.Context, user *entity.User) error {
	user.Role = v.role
	return v.users.Update(ctx, user)
}
