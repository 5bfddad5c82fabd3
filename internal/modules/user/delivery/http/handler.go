package handler

import (
	"net/http"
	"strings"

	"anoa.com/unitech/internal/modules/user/dto"
	user "anoa.com/unitech/internal/modules/user/service"
	"anoa.com/unitech/pkg/apperror"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/response"
	"anoa.com/unitech/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService user.AuthService
}

func NewAuthHandler(authService user.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
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

	res, err := h.authService.Register(c.Request.Context(), input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.authService.DescribeCurrent(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var input dto.PasswordResetRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "if the account exists, a reset code has been sent"})
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var input dto.PasswordResetConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FieldErrors(err))
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
