package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/unitech/internal/config"
	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/middleware"
	"anoa.com/unitech/pkg/cache"
	"anoa.com/unitech/pkg/mailer"
	"anoa.com/unitech/pkg/ratelimit"
	"anoa.com/unitech/pkg/storage"
	"anoa.com/unitech/pkg/validator"

	adminHttp "anoa.com/unitech/internal/modules/admin/delivery/http"
	adminService "anoa.com/unitech/internal/modules/admin/service"

	categoryHttp "anoa.com/unitech/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/unitech/internal/modules/category/repository"
	categoryService "anoa.com/unitech/internal/modules/category/service"

	courseHttp "anoa.com/unitech/internal/modules/course/delivery/http"
	courseRepo "anoa.com/unitech/internal/modules/course/repository"
	courseService "anoa.com/unitech/internal/modules/course/service"

	profileHttp "anoa.com/unitech/internal/modules/profile/delivery/http"
	"anoa.com/unitech/internal/modules/profile/reactor"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	profileService "anoa.com/unitech/internal/modules/profile/service"

	searchService "anoa.com/unitech/internal/modules/search/service"

	statHttp "anoa.com/unitech/internal/modules/stat/delivery/http"
	statService "anoa.com/unitech/internal/modules/stat/service"

	tagHttp "anoa.com/unitech/internal/modules/tag/delivery/http"
	tagRepo "anoa.com/unitech/internal/modules/tag/repository"
	tagService "anoa.com/unitech/internal/modules/tag/service"

	userHttp "anoa.com/unitech/internal/modules/user/delivery/http"
	userRepo "anoa.com/unitech/internal/modules/user/repository"
	userService "anoa.com/unitech/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Deps are the connections built by main. Redis, Meili and ImageStorage may be nil; the features
// that need them degrade instead of failing.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Meili        meilisearch.ServiceManager
	ImageStorage storage.ImageStorage
	Mailer       mailer.Sender
	Config       *config.Config
	Logger       *zap.Logger
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer(deps Deps) (*Server, error) {
	cfg := deps.Config
	logger := deps.Logger

	if err := validator.RegisterBindings(); err != nil {
		return nil, err
	}

	studentRepo := profileRepo.NewStudentRepository(deps.DB)
	instructorRepo := profileRepo.NewInstructorRepository(deps.DB)
	profileReactor := reactor.New(studentRepo, instructorRepo, logger.Named("reactor"))
	userRepo := userRepo.NewUserRepository(deps.DB, profileReactor.Options()...)

	userCache := cache.New(deps.Redis, cfg.CacheTTL)
	limiter := ratelimit.New(deps.Redis)

	authSvc := userService.NewAuthService(userService.Deps{
		Users:        userRepo,
		Students:     studentRepo,
		ImageStorage: deps.ImageStorage,
		Cache:        userCache,
		Limiter:      limiter,
		Mailer:       deps.Mailer,
		Logger:       logger.Named("auth"),
	}, userService.Config{
		Secret:            cfg.JWTSecret,
		TokenTTL:          cfg.JWTTTL,
		PasswordMinLength: cfg.PasswordMinLength,
		BcryptCost:        bcrypt.DefaultCost,
		ResetCodeTTL:      cfg.ResetCodeTTL,
		ResetURL:          cfg.PasswordResetURL,
		ResetRateLimit:    cfg.RateLimitReset,
	})
	authHandler := userHttp.NewAuthHandler(authSvc)

	adminSvc := adminService.NewAdminService(adminService.Deps{
		Users:        userRepo,
		Students:     studentRepo,
		Instructors:  instructorRepo,
		ImageStorage: deps.ImageStorage,
		Cache:        userCache,
		Logger:       logger.Named("admin"),
	}, cfg.PasswordMinLength, bcrypt.DefaultCost)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	profileSvc := profileService.NewProfileService(profileService.Deps{
		Users:        userRepo,
		Students:     studentRepo,
		Instructors:  instructorRepo,
		ImageStorage: deps.ImageStorage,
		Cache:        userCache,
		Logger:       logger.Named("profile"),
	}, cfg.PasswordMinLength, bcrypt.DefaultCost)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	categoryRepo := categoryRepo.NewCategoryRepository(deps.DB)
	categorySvc := categoryService.NewCategoryService(categoryRepo, logger.Named("category"))
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	tagRepo := tagRepo.NewTagRepository(deps.DB)
	tagSvc := tagService.NewTagService(tagRepo, logger.Named("tag"))
	tagHandler := tagHttp.NewTagHandler(tagSvc)

	var courseIndex searchService.CourseIndex
	if deps.Meili != nil {
		courseIndex = searchService.NewCourseIndex(deps.Meili, logger.Named("search"))
	}
	courseRepo := courseRepo.NewCourseRepository(deps.DB)
	courseSvc := courseService.NewCourseService(courseService.Deps{
		Courses:      courseRepo,
		Categories:   categoryRepo,
		Tags:         tagRepo,
		ImageStorage: deps.ImageStorage,
		Index:        courseIndex,
		Logger:       logger.Named("course"),
	})
	courseHandler := courseHttp.NewCourseHandler(courseSvc)

	statSvc := statService.NewStatService(userRepo, courseRepo)
	statHandler := statHttp.NewStatHandler(statSvc)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Named("http")))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/users", middleware.RateLimit(limiter, "register", cfg.RateLimitRegister, logger), authHandler.Register)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/password-reset", authHandler.RequestPasswordReset)
		auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
	}
	api.GET("/categories", categoryHandler.GetAllCategories)
	api.GET("/tags", tagHandler.GetAllTags)
	api.GET("/courses", courseHandler.ListCourses)
	api.GET("/courses/:id", courseHandler.GetCourse)
	api.GET("/users/count", statHandler.GetTotalUsers)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/users/current-user", authHandler.CurrentUser)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		courses := protected.Group("/courses")
		courses.Use(authMiddleware.RequireRole(entity.RoleAdmin, entity.RoleInstructor))
		{
			courses.POST("", courseHandler.CreateCourse)
			courses.PUT("/:id", courseHandler.UpdateCourse)
			courses.DELETE("/:id", courseHandler.DeleteCourse)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.POST("/users/:id/deactivate", adminHandler.DeactivateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.POST("/users/:id/student-profile", adminHandler.CreateStudentProfile)
			adminGroup.PUT("/users/:id/student-profile", adminHandler.UpdateStudentProfile)
			adminGroup.POST("/users/:id/instructor-profile", adminHandler.CreateInstructorProfile)
			adminGroup.PUT("/users/:id/instructor-profile", adminHandler.UpdateInstructorProfile)
			adminGroup.GET("/students", adminHandler.ListStudents)
			adminGroup.GET("/instructors", adminHandler.ListInstructors)
			adminGroup.GET("/stats", statHandler.GetOverview)

			adminGroup.POST("/categories", categoryHandler.CreateCategory)
			adminGroup.PUT("/categories/:id", categoryHandler.UpdateCategory)
			adminGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)
			adminGroup.POST("/tags", tagHandler.CreateTag)
			adminGroup.DELETE("/tags/:id", tagHandler.DeleteTag)
		}
	}

	return &Server{
		engine: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
