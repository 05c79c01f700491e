package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
	"mamastoria/internal/services"
)

// UserHandler: профиль текущего пользователя.
type UserHandler struct {
	service      services.UserService
	maxPhotoSize int64
}

func NewUserHandler(service services.UserService, maxPhotoSize int64) *UserHandler {
	return &UserHandler{service: service, maxPhotoSize: maxPhotoSize}
}

type profileResponse struct {
	*models.User
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

func (h *UserHandler) profile(c *gin.Context, u *models.User) profileResponse {
	return profileResponse{User: u, ProfilePhotoURL: h.service.PhotoURL(c.Request.Context(), u)}
}

// @Summary      Профиль
// @Tags         Profile
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	u, err := h.service.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "profile", "get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": h.profile(c, u)})
}

// @Summary      Обновить профиль
// @Tags         Profile
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.UpdateProfileRequest  true  "Поля профиля"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /profile/update-details [post]
func (h *UserHandler) UpdateDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.UpdateDetails(c.Request.Context(), userID, req)
	switch {
	case errors.Is(err, repositories.ErrDuplicateUsername):
		detail(c, http.StatusBadRequest, "Username already taken")
		return
	case errors.Is(err, repositories.ErrDuplicateEmail):
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	case errors.Is(err, services.ErrProfileQuota):
		detail(c, http.StatusBadRequest, "Profile update quota exceeded")
		return
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, "profile", "update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Profile updated successfully", "data": h.profile(c, u)})
}

// @Summary      Загрузить фото профиля
// @Tags         Profile
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Param        photo  formData  file  true  "jpeg/png/webp"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Router       /profile/update-photo [post]
func (h *UserHandler) UpdatePhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "photo is required")
		return
	}
	if h.maxPhotoSize > 0 && fh.Size > h.maxPhotoSize {
		detail(c, http.StatusBadRequest, services.ErrFileTooBig.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read uploaded file")
		return
	}
	defer f.Close()

	u, err := h.service.UpdatePhoto(c.Request.Context(), userID, f, fh.Size, fh.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, services.ErrFileTooBig), errors.Is(err, services.ErrInvalidFileType):
		detail(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrStorageDisabled):
		detail(c, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		internalError(c, "profile", "photo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Profile photo updated successfully",
		"data":    gin.H{"profile_photo_url": h.service.PhotoURL(c.Request.Context(), u)},
	})
}

// @Summary      Изменить кредиты
// @Tags         Profile
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.UpdateKreditRequest  true  "amount + operation"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /profile/update-kredit [post]
func (h *UserHandler) UpdateKredit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateKreditRequest
	if !bindJSON(c, &req) {
		return
	}
	bal, err := h.service.UpdateKredit(c.Request.Context(), userID, req)
	switch {
	case errors.Is(err, services.ErrInsufficientKredit):
		detail(c, http.StatusBadRequest, "Insufficient credits")
		return
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, "profile", "kredit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Credits " + req.Operation + "ed successfully",
		"data":    gin.H{"current_kredit": bal},
	})
}

// @Summary      Реферальный код
// @Tags         Profile
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /profile/referral-code [get]
func (h *UserHandler) ReferralCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	info, err := h.service.ReferralInfo(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "profile", "referral", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": info})
}

// @Summary      Рейтинг автора
// @Tags         Profile
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /profile/rating [get]
func (h *UserHandler) Rating(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	r, err := h.service.Rating(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "profile", "rating", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": r})
}

// @Summary      Сменить пароль
// @Tags         Password
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.ChangePasswordRequest  true  "old + new"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /password/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword)
	if errors.Is(err, services.ErrWrongPassword) {
		detail(c, http.StatusBadRequest, "Incorrect current password")
		return
	}
	if err != nil {
		internalError(c, "password", "change", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Password changed successfully"})
}

// @Summary      Водяной знак на экспорте
// @Tags         Profile
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.UpdateWatermarkRequest  true  "watermark"
// @Success      200   {object}  map[string]interface{}
// @Router       /profile/update-watermark [post]
func (h *UserHandler) UpdateWatermark(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateWatermarkRequest
	if !bindJSON(c, &req) {
		return
	}
	on, err := h.service.UpdateWatermark(c.Request.Context(), userID, *req.Watermark)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "profile", "watermark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Watermark preference updated successfully",
		"data":    gin.H{"watermark": on},
	})
}

// @Summary      Остаток смен имени
// @Tags         Profile
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /profile/update-quota [get]
func (h *UserHandler) UpdateQuota(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	q, err := h.service.UpdateQuota(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "profile", "quota", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": q})
}

// @Summary      Приглашённые пользователи
// @Tags         Referrals
// @Security     BearerAuth
// @Param        user_id  query  int  false  "по умолчанию текущий пользователь"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /referrals [get]
func (h *UserHandler) Referrals(c *gin.Context) {
	userID, ok := subjectUserID(c, "user_id")
	if !ok {
		return
	}
	refs, err := h.service.Referrals(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "referrals", "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": refs, "total": len(refs)})
}
