package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/unitech/internal/entity"
	profileDto "anoa.com/unitech/internal/modules/profile/dto"
	"anoa.com/unitech/internal/modules/profile/reactor"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	"anoa.com/unitech/internal/modules/user/dto"
	"anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/internal/modules/user/service"
	"anoa.com/unitech/internal/testutil"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/cache"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type env struct {
	db       *gorm.DB
	users    repository.UserRepository
	students profileRepo.ProfileRepository[entity.Student]
	mailer   *testutil.Mailer
	storage  *testutil.ImageStorage
	svc      service.AuthService
}

type option func(*service.Deps)

func newEnv(t *testing.T, opts ...option) *env {
	t.Helper()
	db := testutil.NewDB(t)
	students := profileRepo.NewStudentRepository(db)
	r := reactor.New(students, profileRepo.NewInstructorRepository(db), testutil.Logger())
	users := repository.NewUserRepository(db, r.Options()...)

	e := &env{
		db:       db,
		users:    users,
		students: students,
		mailer:   &testutil.Mailer{},
		storage:  &testutil.ImageStorage{},
	}

	deps := service.Deps{
		Users:        users,
		Students:     students,
		ImageStorage: e.storage,
		Cache:        cache.New(nil, 0),
		Limiter:      ratelimit.New(nil),
		Mailer:       e.mailer,
		Logger:       testutil.Logger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	e.svc = service.NewAuthService(deps, service.Config{
		Secret:            testSecret,
		TokenTTL:          time.Hour,
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.MinCost,
		ResetCodeTTL:      time.Hour,
		ResetURL:          "http://localhost:3000/password-reset",
	})
	return e
}

func strPtr(s string) *string { return &s }

func registerInput(email string) dto.RegisterInput {
	return dto.RegisterInput{
		Email:           email,
		Password:        "s3cretpass",
		PasswordConfirm: "s3cretpass",
		FirstName:       "Marie",
		LastName:        "Curie",
	}
}

func TestRegisterThenDescribeCurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	input := registerInput("marie@x.io")
	input.City = strPtr("Paris")
	input.Sex = strPtr("F")

	registered, err := e.svc.Register(ctx, input, &commonDto.UploadFile{Reader: strings.NewReader("png"), FileName: "me.png"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Role != entity.RoleStudent {
		t.Fatalf("expected STUDENT, got %s", registered.Role)
	}
	if registered.AvatarURL == nil || !strings.Contains(*registered.AvatarURL, "avatars/me.png") {
		t.Fatalf("expected uploaded avatar, got %v", registered.AvatarURL)
	}

	current, err := e.svc.DescribeCurrent(ctx, registered.ID)
	if err != nil {
		t.Fatalf("describe current: %v", err)
	}
	if current.Profile == nil || current.Profile.City == nil || *current.Profile.City != "Paris" {
		t.Fatalf("expected city Paris, got %+v", current.Profile)
	}
	if current.Profile.Sex != entity.SexFemale {
		t.Fatalf("expected sex F, got %s", current.Profile.Sex)
	}

	raw, err := json.Marshal(current)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"city":"Paris"`) {
		t.Fatalf("expected city in representation, got %s", raw)
	}
}

func TestRegisterWithoutProfileFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	registered, err := e.svc.Register(ctx, registerInput("plain@x.io"), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Profile == nil || registered.Profile.Sex != entity.SexOther {
		t.Fatalf("expected default student profile, got %+v", registered.Profile)
	}
	if registered.AvatarURL == nil || *registered.AvatarURL != entity.GravatarURL("plain@x.io") {
		t.Fatalf("expected gravatar fallback, got %v", registered.AvatarURL)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.svc.Register(ctx, registerInput("dup@x.io"), nil); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := e.svc.Register(ctx, registerInput("DUP@X.IO"), nil)
	if !errors.Is(err, apperror.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Register(ctx, registerInput("race@x.io"), nil)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrDuplicateKey):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("expected one success and one duplicate, got %d/%d", ok, dup)
	}

	var profiles int64
	e.db.Model(&entity.Student{}).Count(&profiles)
	if profiles != 1 {
		t.Fatalf("expected exactly one student profile, got %d", profiles)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	input := dto.RegisterInput{
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
		StudentProfileInput: profileDto.StudentProfileInput{
			Phone: strPtr("01234567890123"),
		},
	}

	_, err := e.svc.Register(context.Background(), input, nil)
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"email", "password", "password_confirm", "phone"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("expected %s in %v", field, ve.Fields)
		}
	}

	total, _ := e.users.Count(context.Background())
	if total != 0 {
		t.Fatalf("expected no user created, got %d", total)
	}
}

type brokenStudents struct {
	profileRepo.ProfileRepository[entity.Student]
}

func (brokenStudents) Update(context.Context, *entity.Student) error {
	return errors.New("disk full")
}

func TestRegisterPartialFailure(t *testing.T) {
	e := newEnv(t, func(d *service.Deps) {
		d.Students = brokenStudents{ProfileRepository: d.Students}
	})

	input := registerInput("half@x.io")
	input.City = strPtr("Paris")

	_, err := e.svc.Register(context.Background(), input, nil)
	if !errors.Is(err, apperror.ErrPartialFailure) {
		t.Fatalf("expected partial failure, got %v", err)
	}

	var partial *apperror.PartialFailureError
	if !errors.As(err, &partial) || partial.UserID == uuid.Nil {
		t.Fatalf("expected the created user id, got %v", err)
	}

	user, err := e.users.FindByID(context.Background(), partial.UserID)
	if err != nil {
		t.Fatalf("user should exist after partial failure: %v", err)
	}
	if user.Student == nil {
		t.Fatalf("expected the empty student profile to exist")
	}
}

func TestDescribeCurrentNonStudent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	instructor := &entity.User{Email: "prof@x.io", PasswordHash: "x", Role: entity.RoleInstructor, IsActive: true}
	if err := e.users.Create(ctx, instructor); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := e.svc.DescribeCurrent(ctx, instructor.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	raw, _ := json.Marshal(resp)
	if strings.Contains(string(raw), `"profile"`) {
		t.Fatalf("instructor representation must not have a profile key: %s", raw)
	}
}

func TestDescribeCurrentStudentWithoutProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	registered, err := e.svc.Register(ctx, registerInput("lost@x.io"), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := e.students.Delete(ctx, registered.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}

	resp, err := e.svc.DescribeCurrent(ctx, registered.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	raw, _ := json.Marshal(resp)
	if !strings.Contains(string(raw), `"profile":null`) {
		t.Fatalf("expected null profile, got %s", raw)
	}
}

func TestDescribeCurrentIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := newEnv(t, func(d *service.Deps) { d.Cache = cache.New(rdb, time.Minute) })
	ctx := context.Background()

	registered, err := e.svc.Register(ctx, registerInput("cached@x.io"), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := e.svc.DescribeCurrent(ctx, registered.ID); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !mr.Exists(cache.UserKey(registered.ID)) {
		t.Fatalf("expected representation cached")
	}

	e.db.Model(&entity.User{}).Where("id = ?", registered.ID).UpdateColumn("first_name", "Changed")
	resp, err := e.svc.DescribeCurrent(ctx, registered.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if resp.FirstName != "Marie" {
		t.Fatalf("expected cached first name, got %s", resp.FirstName)
	}

	if _, err := e.svc.Login(ctx, dto.LoginInput{Email: "cached@x.io", Password: "s3cretpass"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if mr.Exists(cache.UserKey(registered.ID)) {
		t.Fatalf("expected login to invalidate the cache")
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	registered, err := e.svc.Register(ctx, registerInput("login@x.io"), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := e.svc.Login(ctx, dto.LoginInput{Email: "LOGIN@x.io", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != registered.ID.String() {
		t.Fatalf("expected subject %s, got %s", registered.ID, claims.Subject)
	}

	user, _ := e.users.FindByID(ctx, registered.ID)
	if user.LastLogin == nil {
		t.Fatalf("expected last login recorded")
	}

	if _, err := e.svc.Login(ctx, dto.LoginInput{Email: "login@x.io", Password: "wrongpass1"}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := e.svc.Login(ctx, dto.LoginInput{Email: "nobody@x.io", Password: "s3cretpass"}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	if err := e.users.Deactivate(ctx, registered.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := e.svc.Login(ctx, dto.LoginInput{Email: "login@x.io", Password: "s3cretpass"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden for inactive account, got %v", err)
	}
}

// racingUsers loses every insert to a concurrent registration of the same email.
type racingUsers struct {
	repository.UserRepository
}

func (racingUsers) Create(context.Context, *entity.User) error {
	return fmt.Errorf("%w: users_email_key", apperror.ErrDuplicateKey)
}

func TestRegisterDiscardsAvatarWhenInsertFails(t *testing.T) {
	e := newEnv(t, func(d *service.Deps) {
		d.Users = racingUsers{UserRepository: d.Users}
	})

	_, err := e.svc.Register(context.Background(), registerInput("race@x.io"),
		&commonDto.UploadFile{Reader: strings.NewReader("img"), FileName: "race.png"})
	if !errors.Is(err, apperror.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if len(e.storage.Files) != 0 {
		t.Fatalf("expected no stored uploads, got %v", e.storage.Files)
	}
	if len(e.storage.Deleted) != 1 || !strings.HasSuffix(e.storage.Deleted[0], "avatars/race.png") {
		t.Fatalf("expected the avatar upload to be removed, got %v", e.storage.Deleted)
	}
}
