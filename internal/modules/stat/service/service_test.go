package service_test

import (
	"context"
	"testing"

	"anoa.com/unitech/internal/entity"
	courseRepo "anoa.com/unitech/internal/modules/course/repository"
	"anoa.com/unitech/internal/modules/stat/service"
	"anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/internal/testutil"
)

func TestGetOverview(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	for _, u := range []struct {
		email string
		role  entity.Role
	}{
		{"a@x.io", entity.RoleStudent},
		{"b@x.io", entity.RoleStudent},
		{"c@x.io", entity.RoleAdmin},
	} {
		if err := users.Create(ctx, &entity.User{Email: u.email, PasswordHash: "x", Role: u.role, IsActive: true}); err != nil {
			t.Fatalf("create %s: %v", u.email, err)
		}
	}

	category := &entity.Category{Label: "Programming", Catalog: entity.Catalog{Slug: "programming", IsActive: true}}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	courses := courseRepo.NewCourseRepository(db)
	for i, active := range []bool{true, false} {
		course := &entity.Course{
			CategoryID:  category.ID,
			Title:       []string{"Go", "Rust"}[i],
			Description: "intro",
			Catalog:     entity.Catalog{Slug: []string{"go", "rust"}[i], IsActive: active},
		}
		if err := courses.Create(ctx, course); err != nil {
			t.Fatalf("create course: %v", err)
		}
	}

	svc := service.NewStatService(users, courses)
	overview, err := svc.GetOverview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if overview.TotalUsers != 3 {
		t.Fatalf("expected 3 users, got %d", overview.TotalUsers)
	}
	if overview.UsersByRole[entity.RoleStudent] != 2 || overview.UsersByRole[entity.RoleAdmin] != 1 {
		t.Fatalf("unexpected role counts %v", overview.UsersByRole)
	}
	if count, ok := overview.UsersByRole[entity.RoleInstructor]; !ok || count != 0 {
		t.Fatalf("expected instructors reported as zero, got %v", overview.UsersByRole)
	}
	if overview.TotalCourses != 2 || overview.ActiveCourses != 1 {
		t.Fatalf("unexpected course counts %+v", overview)
	}

	total, err := svc.GetTotalUsers(ctx)
	if err != nil || total != 3 {
		t.Fatalf("total users: %d %v", total, err)
	}
}
