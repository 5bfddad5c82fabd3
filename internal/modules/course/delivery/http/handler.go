package handler

import (
	"net/http"
	"strings"

	"anoa.com/unitech/internal/modules/course/dto"
	course "anoa.com/unitech/internal/modules/course/service"
	"anoa.com/unitech/pkg/apperror"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/response"
	"anoa.com/unitech/pkg/validator"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	service course.CourseService
}

func NewCourseHandler(service course.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := h.service.ListCourses(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var input dto.CreateCourseInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer closeImage()

	res, err := h.service.CreateCourse(c.Request.Context(), input, image)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpdateCourseInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer closeImage()

	res, err := h.service.UpdateCourse(c.Request.Context(), id, input, image)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteCourse(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course deleted successfully"})
}

// formImage opens the optional "image" part of a multipart request.
func formImage(c *gin.Context) (*commonDto.UploadFile, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, nil
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader == nil {
		return nil, noop, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, apperror.Invalid("image", "failed to read image")
	}

	return &commonDto.UploadFile{Reader: file, FileName: fileHeader.Filename}, func() { _ = file.Close() }, nil
}
