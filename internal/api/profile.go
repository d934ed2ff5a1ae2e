package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-site/backend/internal/middleware"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// AvatarField is the multipart field carrying a profile picture.
const AvatarField = "avatar"

type ProfileHandler struct {
	profileService service.IProfileService
	authService    middleware.TokenValidator
}

func NewProfileHandler(profileService service.IProfileService, authService middleware.TokenValidator) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	profile.Use(middleware.AuthMiddleware(h.authService))
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}

	router.GET("/users/:username", h.GetPublicProfile)
}

// GetProfile returns the caller's profile and recipes, creating an empty
// profile on first access.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(view))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.UpdateProfileRequest
	var avatar *types.Upload
	if isMultipart(c) {
		if bio, ok := c.GetPostForm("bio"); ok {
			req.Bio = &bio
		}
		req.ClearAvatar, _ = strconv.ParseBool(c.PostForm("clear_avatar"))

		upload, err := formFile(c, AvatarField)
		if err != nil {
			respondError(c, bindingError(err), req)
			return
		}
		avatar = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err), req)
		return
	}

	if _, err := h.profileService.UpdateProfile(c.Request.Context(), userID, &req, avatar); err != nil {
		respondError(c, err, req)
		return
	}

	view, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(view))
}

// GetPublicProfile shows another user's profile and recipe list.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	view, err := h.profileService.GetPublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(view))
}
