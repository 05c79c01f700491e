package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
	"mamastoria/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// @Summary      Регистрация
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Данные регистрации"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, sent, err := h.authService.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, repositories.ErrDuplicatePhone):
		detail(c, http.StatusBadRequest, "Phone number already registered")
		return
	case errors.Is(err, repositories.ErrDuplicateEmail):
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		internalError(c, "auth", "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":      true,
		"message": "User registered successfully.",
		"data": gin.H{
			"user_id":                user.ID,
			"phone_number":           user.PhoneNumber,
			"verification_code_sent": sent,
		},
	})
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, tokens, err := h.authService.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, services.ErrNotVerified):
		detail(c, http.StatusForbidden, "Please verify your phone number first")
		return
	case err != nil:
		internalError(c, "auth", "login", err)
		return
	}

	log.Info().Int("user_id", user.ID).Dur("took", time.Since(start)).Msg("[auth][login] success")
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Login successful",
		"data":    gin.H{"user": user, "tokens": tokens},
	})
}

// @Summary      Подтвердить телефон кодом
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyPhoneRequest  true  "phone + code"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifyPhoneRequest
	if !bindJSON(c, &req) {
		return
	}
	user, tokens, err := h.authService.VerifyPhone(c.Request.Context(), req.PhoneNumber, req.VerificationCode)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, services.ErrAlreadyVerified):
		detail(c, http.StatusBadRequest, "User already verified")
		return
	case errors.Is(err, services.ErrCodeInvalid):
		detail(c, http.StatusBadRequest, "Invalid verification code")
		return
	case errors.Is(err, services.ErrCodeExpired):
		detail(c, http.StatusBadRequest, "Verification code expired")
		return
	case err != nil:
		internalError(c, "auth", "verify", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "User verified successfully",
		"data":    gin.H{"user": user, "tokens": tokens},
	})
}

// @Summary      Повторно отправить код
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResendVerificationRequest  true  "phone"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.authService.ResendVerification(c.Request.Context(), req.PhoneNumber)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, services.ErrAlreadyVerified):
		detail(c, http.StatusBadRequest, "User already verified")
		return
	case errors.Is(err, services.ErrResendThrottled):
		detail(c, http.StatusTooManyRequests, "Please wait before requesting new code")
		return
	case err != nil:
		internalError(c, "auth", "resend", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Verification code sent"})
}

// @Summary      Обновить access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, services.ErrRefreshExpired):
		detail(c, http.StatusUnauthorized, "Refresh token expired")
		return
	case err != nil:
		detail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": tokens})
}

// @Summary      Выход
// @Tags         Auth
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		internalError(c, "auth", "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Logged out successfully"})
}

// @Summary      Обновить FCM токен
// @Tags         Auth
// @Security     BearerAuth
// @Accept       json
// @Success      200  {object}  map[string]interface{}
// @Router       /auth/update-fcm-token [post]
func (h *AuthHandler) UpdateFCMToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		FCMToken string `json:"fcm_token" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.UpdateFCMToken(c.Request.Context(), userID, req.FCMToken); err != nil {
		internalError(c, "auth", "fcm", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "FCM token updated successfully"})
}
