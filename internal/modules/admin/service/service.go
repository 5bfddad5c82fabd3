package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/modules/admin/dto"
	profileDto "anoa.com/unitech/internal/modules/profile/dto"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	userDto "anoa.com/unitech/internal/modules/user/dto"
	userRepo "anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/cache"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/storage"
	"anoa.com/unitech/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	CreateUser(ctx context.Context, input dto.CreateUserInput, avatar *commonDto.UploadFile) (*userDto.UserResponse, error)
	ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*userDto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*userDto.UserResponse, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListByRole(ctx context.Context, role entity.Role) ([]*userDto.UserResponse, error)

	CreateStudentProfile(ctx context.Context, userID uuid.UUID, input profileDto.StudentProfileInput) (*userDto.UserResponse, error)
	UpdateStudentProfile(ctx context.Context, userID uuid.UUID, input profileDto.StudentProfileInput) (*userDto.UserResponse, error)
	CreateInstructorProfile(ctx context.Context, userID uuid.UUID, input profileDto.InstructorProfileInput) (*userDto.UserResponse, error)
	UpdateInstructorProfile(ctx context.Context, userID uuid.UUID, input profileDto.InstructorProfileInput) (*userDto.UserResponse, error)
}

type Deps struct {
	Users        userRepo.UserRepository
	Students     profileRepo.ProfileRepository[entity.Student]
	Instructors  profileRepo.ProfileRepository[entity.Instructor]
	ImageStorage storage.ImageStorage
	Cache        *cache.Cache
	Logger       *zap.Logger
}

type adminService struct {
	repo              userRepo.UserRepository
	students          profileRepo.ProfileRepository[entity.Student]
	instructors       profileRepo.ProfileRepository[entity.Instructor]
	imageStorage      storage.ImageStorage
	cache             *cache.Cache
	logger            *zap.Logger
	passwordMinLength int
	bcryptCost        int
}

func NewAdminService(deps Deps, passwordMinLength, bcryptCost int) AdminService {
	if passwordMinLength == 0 {
		passwordMinLength = 8
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &adminService{
		repo:              deps.Users,
		students:          deps.Students,
		instructors:       deps.Instructors,
		imageStorage:      deps.ImageStorage,
		cache:             deps.Cache,
		logger:            deps.Logger,
		passwordMinLength: passwordMinLength,
		bcryptCost:        bcryptCost,
	}
}

// CreateUser creates an account of any role. The role goes through its view so the matching
// profile is created in the same transaction.
func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput, avatar *commonDto.UploadFile) (*userDto.UserResponse, error) {
	ve := &apperror.ValidationError{}
	ve.Merge(validator.ValidateEmail(input.Email))
	ve.Merge(validator.ValidatePassword(input.Password, s.passwordMinLength))
	if input.Password != input.PasswordConfirm {
		ve.Add("password_confirm", "passwords do not match")
	}

	role := entity.RoleAdmin
	if input.Role != "" {
		parsed, err := entity.ParseRole(input.Role)
		ve.Merge(err)
		role = parsed
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(input.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", apperror.ErrDuplicateKey, email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashedPassword),
		IsActive:     input.IsActive == nil || *input.IsActive,
	}

	if avatar != nil && avatar.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &url
	}

	if err := userRepo.ViewFor(role, s.repo).Create(ctx, user); err != nil {
		s.discardAvatar(ctx, user.AvatarURL)
		return nil, err
	}

	s.logger.Info("user created by admin", zap.String("user_id", user.ID.String()), zap.String("role", role.String()))
	return s.describe(ctx, user.ID)
}

func (s *adminService) ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.UserListResponse, error) {
	filter := userRepo.UserFilter{
		IsActive: query.Active,
		Search:   query.Search,
		Page:     query.Page,
		Limit:    query.Limit,
	}
	if query.Role != "" {
		role, err := entity.ParseRole(query.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = role
	}

	users, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]*userDto.UserResponse, len(users))
	for i, user := range users {
		data[i] = userDto.BuildUserResponse(user)
	}

	return &dto.UserListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*userDto.UserResponse, error) {
	return s.describe(ctx, id)
}

// UpdateUser is an administrative override. A role change is stored as is: profiles are not
// created or removed, and the resulting mismatch is logged.
func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &apperror.ValidationError{}
	if input.Email != nil {
		ve.Merge(validator.ValidateEmail(*input.Email))
	}
	if input.Password != nil && *input.Password != "" {
		ve.Merge(validator.ValidatePassword(*input.Password, s.passwordMinLength))
		ve.Merge(validator.ConfirmPassword(*input.Password, input.PasswordConfirm))
	}
	role := user.Role
	if input.Role != nil {
		parsed, err := entity.ParseRole(*input.Role)
		ve.Merge(err)
		role = parsed
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := entity.NormalizeEmail(*input.Email)
		if email != user.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%w: email %s is already registered", apperror.ErrDuplicateKey, email)
			} else if !errors.Is(err, apperror.ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil && *input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if role != user.Role {
		s.logger.Warn("role changed, profiles are not reconciled",
			zap.String("user_id", user.ID.String()),
			zap.String("from", user.Role.String()),
			zap.String("to", role.String()),
		)
	}

	if err := userRepo.ViewFor(role, s.repo).Update(ctx, user); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.describe(ctx, id)
}

func (s *adminService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteUser removes the user and its profiles. An uploaded avatar is removed best effort.
func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.discardAvatar(ctx, user.AvatarURL)
	return nil
}

// discardAvatar deletes an uploaded avatar best effort. Gravatar fallbacks are left alone.
func (s *adminService) discardAvatar(ctx context.Context, url *string) {
	if url == nil || s.imageStorage == nil || !entity.IsUploadedAvatar(*url) {
		return
	}
	if err := s.imageStorage.DeleteImage(ctx, *url); err != nil {
		s.logger.Warn("failed to delete avatar", zap.String("url", *url), zap.Error(err))
	}
}

func (s *adminService) ListByRole(ctx context.Context, role entity.Role) ([]*userDto.UserResponse, error) {
	users, err := userRepo.ViewFor(role, s.repo).List(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*userDto.UserResponse, len(users))
	for i, user := range users {
		res[i] = userDto.BuildUserResponse(user)
	}
	return res, nil
}

func (s *adminService) CreateStudentProfile(ctx context.Context, userID uuid.UUID, input profileDto.StudentProfileInput) (*userDto.UserResponse, error) {
	if err := s.requireRole(ctx, userID, entity.RoleStudent); err != nil {
		return nil, err
	}

	attrs := &entity.Student{}
	if err := input.Apply(attrs); err != nil {
		return nil, err
	}
	if _, err := s.students.Create(ctx, userID, attrs); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return s.describe(ctx, userID)
}

func (s *adminService) UpdateStudentProfile(ctx context.Context, userID uuid.UUID, input profileDto.StudentProfileInput) (*userDto.UserResponse, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := input.Apply(student); err != nil {
		return nil, err
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return s.describe(ctx, userID)
}

func (s *adminService) CreateInstructorProfile(ctx context.Context, userID uuid.UUID, input profileDto.InstructorProfileInput) (*userDto.UserResponse, error) {
	if err := s.requireRole(ctx, userID, entity.RoleInstructor); err != nil {
		return nil, err
	}

	attrs := &entity.Instructor{}
	if err := input.Apply(attrs); err != nil {
		return nil, err
	}
	if _, err := s.instructors.Create(ctx, userID, attrs); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return s.describe(ctx, userID)
}

func (s *adminService) UpdateInstructorProfile(ctx context.Context, userID uuid.UUID, input profileDto.InstructorProfileInput) (*userDto.UserResponse, error) {
	instructor, err := s.instructors.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := input.Apply(instructor); err != nil {
		return nil, err
	}
	if err := s.instructors.Update(ctx, instructor); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return s.describe(ctx, userID)
}

// requireRole keeps manual profile creation from adding a profile of the wrong kind.
func (s *adminService) requireRole(ctx context.Context, userID uuid.UUID, role entity.Role) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != role {
		return apperror.Invalid("role", fmt.Sprintf("user has role %s, expected %s", user.Role, role))
	}
	return nil
}

func (s *adminService) describe(ctx context.Context, id uuid.UUID) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userDto.BuildUserResponse(user), nil
}

func (s *adminService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.UserKey(userID)); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
