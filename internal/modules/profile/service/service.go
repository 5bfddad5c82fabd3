package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/unitech/internal/entity"
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

type ProfileService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *commonDto.UploadFile) (*userDto.UserResponse, error)
}

type Deps struct {
	Users        userRepo.UserRepository
	Students     profileRepo.ProfileRepository[entity.Student]
	Instructors  profileRepo.ProfileRepository[entity.Instructor]
	ImageStorage storage.ImageStorage
	Cache        *cache.Cache
	Logger       *zap.Logger
}

type profileService struct {
	repo              userRepo.UserRepository
	students          profileRepo.ProfileRepository[entity.Student]
	instructors       profileRepo.ProfileRepository[entity.Instructor]
	imageStorage      storage.ImageStorage
	cache             *cache.Cache
	logger            *zap.Logger
	passwordMinLength int
	bcryptCost        int
}

func NewProfileService(deps Deps, passwordMinLength, bcryptCost int) ProfileService {
	if passwordMinLength == 0 {
		passwordMinLength = 8
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &profileService{
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

func (s *profileService) validate(user *entity.User, input profileDto.UpdateProfileInput) error {
	ve := &apperror.ValidationError{}
	if input.Password != nil && *input.Password != "" {
		ve.Merge(validator.ValidatePassword(*input.Password, s.passwordMinLength))
		ve.Merge(validator.ConfirmPassword(*input.Password, input.PasswordConfirm))
	}
	switch user.Role {
	case entity.RoleStudent:
		ve.Merge(input.StudentProfileInput.Validate())
	case entity.RoleInstructor:
		ve.Merge(input.InstructorInput().Validate())
	}
	return ve.OrNil()
}

// UpdateProfile changes the caller's own account. Only the profile matching the caller's role is
// touched; a missing profile row is created on the fly.
func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *commonDto.UploadFile) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", apperror.ErrUnauthorized)
	}

	if err := s.validate(user, input); err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	if input.Password != nil && *input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if avatar != nil && avatar.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &url
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	switch user.Role {
	case entity.RoleStudent:
		if !input.StudentProfileInput.Empty() {
			err = s.updateStudent(ctx, user.ID, input.StudentProfileInput)
		}
	case entity.RoleInstructor:
		if in := input.InstructorInput(); in.Phone != nil || in.Sex != nil {
			err = s.updateInstructor(ctx, user.ID, in)
		}
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, user.ID)

	updated, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return userDto.BuildUserResponse(updated), nil
}

func (s *profileService) updateStudent(ctx context.Context, userID uuid.UUID, input profileDto.StudentProfileInput) error {
	student, err := s.students.FindByUserID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("student has no profile, creating it", zap.String("user_id", userID.String()))
		attrs := &entity.Student{}
		if err := input.Apply(attrs); err != nil {
			return err
		}
		_, err = s.students.Create(ctx, userID, attrs)
		return err
	}
	if err != nil {
		return err
	}
	if err := input.Apply(student); err != nil {
		return err
	}
	return s.students.Update(ctx, student)
}

func (s *profileService) updateInstructor(ctx context.Context, userID uuid.UUID, input profileDto.InstructorProfileInput) error {
	instructor, err := s.instructors.FindByUserID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("instructor has no profile, creating it", zap.String("user_id", userID.String()))
		attrs := &entity.Instructor{}
		if err := input.Apply(attrs); err != nil {
			return err
		}
		_, err = s.instructors.Create(ctx, userID, attrs)
		return err
	}
	if err != nil {
		return err
	}
	if err := input.Apply(instructor); err != nil {
		return err
	}
	return s.instructors.Update(ctx, instructor)
}

func (s *profileService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.UserKey(userID)); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
