package handler

import (
	"net/http"
	"strings"

	profileDto "anoa.com/unitech/internal/modules/profile/dto"
	profile "anoa.com/unitech/internal/modules/profile/service"
	"anoa.com/unitech/pkg/apperror"
	commonDto "anoa.com/unitech/pkg/dto"
	"anoa.com/unitech/pkg/response"
	"anoa.com/unitech/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.UpdateProfileInput
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

	res, err := h.profileService.UpdateProfile(c.Request.Context(), userID, input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
