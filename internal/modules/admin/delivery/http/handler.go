package handler

import (
	"context"
	"net/http"
	"strings"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/modules/admin/dto"
	adminService "anoa.com/unitech/internal/modules/admin/service"
	profileDto "anoa.com/unitech/internal/modules/profile/dto"
	userDto "anoa.com/unitech/internal/modules/user/dto"
	"anoa.com/unitech/pkg/apperror"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/response"
	"anoa.com/unitech/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService adminService.AdminService
}

func NewAdminHandler(adminService adminService.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var input dto.CreateUserInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	var avatar *commonDto.UploadFile
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				response.ResponseError(c, apperror.Invalid("avatar", "failed to read avatar"))
				return
			}
			defer file.Close()

			avatar = &commonDto.UploadFile{
				Reader:   file,
				FileName: fileHeader.Filename,
			}
		}
	}

	res, err := h.adminService.CreateUser(c.Request.Context(), input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := h.adminService.ListUsers(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := h.adminService.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.adminService.DeactivateUser(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *AdminHandler) ListStudents(c *gin.Context) {
	h.listByRole(c, entity.RoleStudent)
}

func (h *AdminHandler) ListInstructors(c *gin.Context) {
	h.listByRole(c, entity.RoleInstructor)
}

func (h *AdminHandler) listByRole(c *gin.Context, role entity.Role) {
	res, err := h.adminService.ListByRole(c.Request.Context(), role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AdminHandler) CreateStudentProfile(c *gin.Context) {
	h.studentProfile(c, http.StatusCreated, h.adminService.CreateStudentProfile)
}

func (h *AdminHandler) UpdateStudentProfile(c *gin.Context) {
	h.studentProfile(c, http.StatusOK, h.adminService.UpdateStudentProfile)
}

func (h *AdminHandler) CreateInstructorProfile(c *gin.Context) {
	h.instructorProfile(c, http.StatusCreated, h.adminService.CreateInstructorProfile)
}

func (h *AdminHandler) UpdateInstructorProfile(c *gin.Context) {
	h.instructorProfile(c, http.StatusOK, h.adminService.UpdateInstructorProfile)
}

func (h *AdminHandler) studentProfile(c *gin.Context, status int, apply func(ctx context.Context, id uuid.UUID, in profileDto.StudentProfileInput) (*userDto.UserResponse, error)) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.StudentProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := apply(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(status, res)
}

func (h *AdminHandler) instructorProfile(c *gin.Context, status int, apply func(ctx context.Context, id uuid.UUID, in profileDto.InstructorProfileInput) (*userDto.UserResponse, error)) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.InstructorProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := apply(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(status, res)
}
