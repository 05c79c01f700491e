package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

const resetTokenSentMessage = "If the email is registered, a reset code will be sent."

// VerifyHandler serves email OTP issuance/validation and the password reset flow.
type VerifyHandler struct {
	Verification services.VerificationService
}

func NewVerifyHandler(s services.VerificationService) *VerifyHandler {
	return &VerifyHandler{Verification: s}
}

// @Summary      Отправить OTP на email
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        body  body      models.SendOTPRequest  true  "email"
// @Success      200   {object}  map[string]interface{}
// @Failure      422   {object}  map[string]string
// @Router       /users/send-otp [post]
func (h *VerifyHandler) SendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Verification.Issue(c.Request.Context(), req.Email, services.PurposeEmailVerification); err != nil {
		log.Warn().Err(err).Msg("[verify][send-otp] issuance failed")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Проверить код подтверждения
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        body  body      models.CheckVerificationCodeRequest  true  "email + code"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users/check-verification-code [post]
func (h *VerifyHandler) CheckVerificationCode(c *gin.Context) {
	var req models.CheckVerificationCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Verification.Validate(c.Request.Context(), req.Email, req.VerificationCode)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, services.ErrCodeInvalid):
		detail(c, http.StatusBadRequest, "Invalid verification code")
		return
	case errors.Is(err, services.ErrCodeExpired):
		detail(c, http.StatusBadRequest, "Verification code expired")
		return
	case err != nil:
		internalError(c, "verify", "check-code", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Verification code is valid",
		"data": models.VerifiedUser{
			UserID:     user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			IsVerified: user.IsVerified,
		},
	})
}

// @Summary      Отправить код сброса пароля
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        body  body      models.SendResetTokenRequest  true  "email"
// @Success      200   {object}  map[string]interface{}
// @Failure      422   {object}  map[string]string
// @Router       /password/send-reset-token [post]
func (h *VerifyHandler) SendResetToken(c *gin.Context) {
	var req models.SendResetTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	// ответ одинаковый при любом исходе
	if err := h.Verification.Issue(c.Request.Context(), req.Email, services.PurposePasswordReset); err != nil {
		log.Warn().Err(err).Msg("[verify][send-reset-token] issuance failed")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": resetTokenSentMessage})
}

func resetCodeError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrCodeInvalid):
		detail(c, http.StatusBadRequest, "Invalid reset code")
	case errors.Is(err, services.ErrCodeExpired):
		detail(c, http.StatusBadRequest, "Reset code expired")
	default:
		internalError(c, "verify", "reset", err)
	}
	return true
}

// @Summary      Проверить код сброса
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyResetTokenRequest  true  "email + reset_token"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /password/verify-reset-token [post]
func (h *VerifyHandler) VerifyResetToken(c *gin.Context) {
	var req models.VerifyResetTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	_, err := h.Verification.Validate(c.Request.Context(), req.Email, req.ResetToken)
	if resetCodeError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Reset code verified. You can now reset your password."})
}

// @Summary      Сбросить пароль по коду
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "email + reset_token + new_password"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /password/reset-password [post]
func (h *VerifyHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.Verification.ResetPassword(c.Request.Context(), req.Email, req.ResetToken, req.NewPassword)
	if resetCodeError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Password reset successfully"})
}
