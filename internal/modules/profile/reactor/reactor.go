// Package reactor keeps role profiles in step with the users that own them. It is attached to the
// user repository as save and delete hooks, so it always runs inside the user's transaction.
package reactor

import (
	"context"
	"fmt"

	"anoa.com/unitech/internal/entity"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	userRepo "anoa.com/unitech/internal/modules/user/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type createFunc func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

type Reactor struct {
	students    profileRepo.ProfileRepository[entity.Student]
	instructors profileRepo.ProfileRepository[entity.Instructor]
	logger      *zap.Logger
	onCreate    map[entity.Role]createFunc
}

func New(
	students profileRepo.ProfileRepository[entity.Student],
	instructors profileRepo.ProfileRepository[entity.Instructor],
	logger *zap.Logger,
) *Reactor {
	r := &Reactor{
		students:    students,
		instructors: instructors,
		logger:      logger,
	}
	r.onCreate = map[entity.Role]createFunc{
		entity.RoleStudent: func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
			_, err := r.students.WithTx(tx).Create(ctx, userID, nil)
			return err
		},
		entity.RoleInstructor: func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
			_, err := r.instructors.WithTx(tx).Create(ctx, userID, nil)
			return err
		},
	}
	return r
}

// Options returns the hooks to pass to userRepo.NewUserRepository.
func (r *Reactor) Options() []userRepo.Option {
	return []userRepo.Option{
		userRepo.WithSaveHook(r.HandleUserSaved),
		userRepo.WithDeleteHook(r.HandleUserDeleted),
	}
}

// HandleUserSaved creates the empty profile matching the role of a newly created user.
// Updates are ignored: a later role change does not add or remove profiles.
func (r *Reactor) HandleUserSaved(ctx context.Context, tx *gorm.DB, event userRepo.SavedEvent) error {
	if !event.Created {
		return nil
	}

	create, ok := r.onCreate[event.User.Role]
	if !ok {
		return nil
	}

	if err := create(ctx, tx, event.User.ID); err != nil {
		return fmt.Errorf("create %s profile for user %s: %w", event.User.Role, event.User.ID, err)
	}

	r.logger.Debug("profile created",
		zap.String("user_id", event.User.ID.String()),
		zap.String("role", event.User.Role.String()),
	)
	return nil
}

func (r *Reactor) HandleUserDeleted(ctx context.Context, tx *gorm.DB, user *entity.User) error {
	if err := r.students.WithTx(tx).Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete student profile for user %s: %w", user.ID, err)
	}
	if err := r.instructors.WithTx(tx).Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete instructor profile for user %s: %w", user.ID, err)
	}
	return nil
}
