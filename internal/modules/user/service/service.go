package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/unitech/internal/entity"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	"anoa.com/unitech/internal/modules/user/dto"
	"anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/cache"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/mailer"
	"anoa.com/unitech/pkg/ratelimit"
	"anoa.com/unitech/pkg/storage"
	"anoa.com/unitech/pkg/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput, avatar *commonDto.UploadFile) (*dto.UserResponse, error)
	DescribeCurrent(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, input dto.PasswordResetRequestInput) error
	ConfirmPasswordReset(ctx context.Context, input dto.PasswordResetConfirmInput) error
}

type Config struct {
	Secret            string
	TokenTTL          time.Duration
	PasswordMinLength int
	BcryptCost        int
	ResetCodeTTL      time.Duration
	ResetURL          string
	ResetRateLimit    time.Duration
}

type Deps struct {
	Users        repository.UserRepository
	Students     profileRepo.ProfileRepository[entity.Student]
	ImageStorage storage.ImageStorage
	Cache        *cache.Cache
	Limiter      *ratelimit.Limiter
	Mailer       mailer.Sender
	Logger       *zap.Logger
}

type authService struct {
	repo         repository.UserRepository
	students     profileRepo.ProfileRepository[entity.Student]
	imageStorage storage.ImageStorage
	cache        *cache.Cache
	limiter      *ratelimit.Limiter
	mailer       mailer.Sender
	logger       *zap.Logger
	cfg          Config
}

func NewAuthService(deps Deps, cfg Config) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.PasswordMinLength == 0 {
		cfg.PasswordMinLength = 8
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &authService{
		repo:         deps.Users,
		students:     deps.Students,
		imageStorage: deps.ImageStorage,
		cache:        deps.Cache,
		limiter:      deps.Limiter,
		mailer:       deps.Mailer,
		logger:       deps.Logger,
		cfg:          cfg,
	}
}

func (s *authService) validateRegister(input dto.RegisterInput) error {
	ve := &apperror.ValidationError{}
	ve.Merge(validator.ValidateEmail(input.Email))
	ve.Merge(validator.ValidatePassword(input.Password, s.cfg.PasswordMinLength))
	ve.Merge(validator.ConfirmPassword(input.Password, input.PasswordConfirm))
	ve.Merge(input.StudentProfileInput.Validate())
	if len(input.FirstName) > 150 {
		ve.Add("first_name", "first_name must be at most 150 characters")
	}
	if len(input.LastName) > 150 {
		ve.Add("last_name", "last_name must be at most 150 characters")
	}
	return ve.OrNil()
}

// Register creates a student account. The student profile row is created together with the
// user; the optional profile fields are applied afterwards.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput, avatar *commonDto.UploadFile) (*dto.UserResponse, error) {
	if err := s.validateRegister(input); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(input.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", apperror.ErrDuplicateKey, email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	if avatar != nil && avatar.Reader != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &url
	}

	if err := repository.Students(s.repo).Create(ctx, user); err != nil {
		s.discardAvatar(ctx, user.AvatarURL)
		return nil, err
	}

	if !input.StudentProfileInput.Empty() {
		if err := s.applyStudentProfile(ctx, user.ID, input); err != nil {
			return nil, s.partialFailure(user.ID, "profile update", err)
		}
	}

	created, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, s.partialFailure(user.ID, "reload", err)
	}

	s.logger.Info("student registered", zap.String("user_id", created.ID.String()))
	return dto.BuildUserResponse(created), nil
}

// discardAvatar removes an upload that no stored user refers to. Failures are only logged.
func (s *authService) discardAvatar(ctx context.Context, url *string) {
	if url == nil || s.imageStorage == nil || !entity.IsUploadedAvatar(*url) {
		return
	}
	if err := s.imageStorage.DeleteImage(ctx, *url); err != nil {
		s.logger.Warn("failed to delete orphaned avatar", zap.String("url", *url), zap.Error(err))
	}
}

func (s *authService) applyStudentProfile(ctx context.Context, userID uuid.UUID, input dto.RegisterInput) error {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := input.StudentProfileInput.Apply(student); err != nil {
		return err
	}
	return s.students.Update(ctx, student)
}

func (s *authService) partialFailure(userID uuid.UUID, step string, err error) error {
	s.logger.Error("user created but a follow-up step failed",
		zap.String("user_id", userID.String()),
		zap.String("step", step),
		zap.Error(err),
	)
	return &apperror.PartialFailureError{UserID: userID, Step: step, Err: err}
}

func (s *authService) DescribeCurrent(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	var cached dto.UserResponse
	if err := s.cache.Get(ctx, cache.UserKey(userID), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("user cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", apperror.ErrUnauthorized)
	}

	if user.Role == entity.RoleStudent && user.Student == nil {
		s.logger.Warn("student has no profile", zap.String("user_id", user.ID.String()))
	}

	resp := dto.BuildUserResponse(user)
	if err := s.cache.Set(ctx, cache.UserKey(userID), resp); err != nil {
		s.logger.Warn("user cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return resp, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", apperror.ErrForbidden)
	}

	now := time.Now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastLogin = &now
		s.invalidate(ctx, user.ID)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.UserKey(userID)); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        dto.BuildUserResponse(user),
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.cfg.TokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
