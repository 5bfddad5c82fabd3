package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/pkg/apperror"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Student{},
		&entity.Instructor{},
		&entity.Category{},
		&entity.Tag{},
		&entity.Course{},
	)
}

// UserStore is the slice of the user repository the seeders need.
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// SeedAdminUser creates the development administrator once. It goes through the user store so
// the same creation hooks run as for every other account.
func SeedAdminUser(ctx context.Context, users UserStore, email, password string, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := users.FindByEmail(ctx, email); err == nil {
		logger.Info("admin user already exists, skipping seed", zap.String("email", email))
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := &entity.User{
		Email:        email,
		FirstName:    "Administrator",
		PasswordHash: string(hashedPasswordBytes),
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}

	if err := users.Create(ctx, adminUser); err != nil {
		return err
	}

	logger.Info("admin user seeded", zap.String("email", adminUser.Email))
	return nil
}
