package service

import (
	"context"

	"anoa.com/unitech/internal/entity"
	courseRepo "anoa.com/unitech/internal/modules/course/repository"
	"anoa.com/unitech/internal/modules/user/repository"
)

type Overview struct {
	TotalUsers    int64                 `json:"total_users"`
	UsersByRole   map[entity.Role]int64 `json:"users_by_role"`
	TotalCourses  int64                 `json:"total_courses"`
	ActiveCourses int64                 `json:"active_courses"`
}

type StatService interface {
	GetTotalUsers(ctx context.Context) (int64, error)
	GetOverview(ctx context.Context) (*Overview, error)
}

type statService struct {
	userRepo   repository.UserRepository
	courseRepo courseRepo.CourseRepository
}

func NewStatService(userRepo repository.UserRepository, courseRepo courseRepo.CourseRepository) StatService {
	return &statService{
		userRepo:   userRepo,
		courseRepo: courseRepo,
	}
}

func (s *statService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

func (s *statService) GetOverview(ctx context.Context) (*Overview, error) {
	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{UsersByRole: byRole}
	for _, count := range byRole {
		overview.TotalUsers += count
	}

	if overview.TotalCourses, err = s.courseRepo.Count(ctx, true); err != nil {
		return nil, err
	}
	if overview.ActiveCourses, err = s.courseRepo.Count(ctx, false); err != nil {
		return nil, err
	}

	return overview, nil
}
