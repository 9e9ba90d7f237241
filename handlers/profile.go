package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"food-ordering-api/middleware"
	"food-ordering-api/services"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// GetProfile returns the logged-in user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "PROFILE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateProfile applies a multipart profile form, including an optional profile_picture file.
// The replaced picture is removed only after the row points at the new one.
func (h *Handler) UpdateProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxRequestSize())
	in, err := parseProfileForm(c, h.uploads.MaxSize)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "Profile form exceeds the upload limit")
			return
		}
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	file, err := c.FormFile("profile_picture")
	switch {
	case err == nil:
		stored, err := h.uploads.Save(file)
		if err != nil {
			if errors.Is(err, errBadUpload) {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
			respondError(c, "PROFILE", err)
			return
		}
		in.ProfilePicture = &stored
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		fail(c, http.StatusBadRequest, "Invalid profile_picture: "+err.Error())
		return
	}

	user, replaced, err := h.users.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		if in.ProfilePicture != nil {
			h.uploads.Remove(*in.ProfilePicture)
		}
		respondError(c, "PROFILE", err)
		return
	}
	if in.ProfilePicture != nil && replaced != "" && replaced != *in.ProfilePicture {
		h.uploads.Remove(replaced)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated", "user": user})
}

func parseProfileForm(c *gin.Context, maxMemory int64) (services.ProfileInput, error) {
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.ProfileInput{}, err
	}

	var in services.ProfileInput
	if value, ok := c.GetPostForm("full_name"); ok {
		in.FullName = &value
	}
	if value, ok := c.GetPostForm("contact"); ok {
		in.Contact = &value
	}
	if value, ok := c.GetPostForm("address"); ok {
		in.Address = &value
	} else if value, ok := c.GetPostForm("delivery_address"); ok {
		in.Address = &value
	}

	lat, err := optionalFloat(c, "latitude")
	if err != nil {
		return services.ProfileInput{}, err
	}
	lng, err := optionalFloat(c, "longitude")
	if err != nil {
		return services.ProfileInput{}, err
	}
	in.Latitude, in.Longitude = lat, lng
	return in, nil
}

func optionalFloat(c *gin.Context, field string) (*float64, error) {
	value, ok := c.GetPostForm(field)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, errors.New(field + " must be a number")
	}
	return &parsed, nil
}

// ChangePassword re-checks the current password before storing the new one
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, "PROFILE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed"})
}

// DeleteAccount removes the caller's account, orders and profile picture
func (h *Handler) DeleteAccount(c *gin.Context) {
	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	picture, err := h.users.DeleteAccount(c.Request.Context(), middleware.GetUserID(c), req.Password)
	if err != nil {
		respondError(c, "PROFILE", err)
		return
	}
	h.uploads.Remove(picture)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deleted"})
}
