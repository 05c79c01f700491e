package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

type issueCall struct {
	email   string
	purpose services.CodePurpose
}

type fakeVerification struct {
	issued      []issueCall
	validated   []string
	reset       []string
	issueErr    error
	validateErr error
	resetErr    error
	user        *models.User
}

func (f *fakeVerification) Issue(_ context.Context, email string, purpose services.CodePurpose) error {
	f.issued = append(f.issued, issueCall{email, purpose})
	return f.issueErr
}

func (f *fakeVerification) Validate(_ context.Context, email, code string) (*models.User, error) {
	f.validated = append(f.validated, email+":"+code)
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.user, nil
}

func (f *fakeVerification) ResetPassword(_ context.Context, email, code, pw string) error {
	f.reset = append(f.reset, email+":"+code+":"+pw)
	return f.resetErr
}

func verifyRouter(f *fakeVerification) *gin.Engine {
	h := NewVerifyHandler(f)
	r := gin.New()
	r.POST("/users/send-otp", h.SendOTP)
	r.POST("/users/check-verification-code", h.CheckVerificationCode)
	r.POST("/password/send-reset-token", h.SendResetToken)
	r.POST("/password/verify-reset-token", h.VerifyResetToken)
	r.POST("/password/reset-password", h.ResetPassword)
	return r
}

func TestSendOTP(t *testing.T) {
	f := &fakeVerification{}
	r := verifyRouter(f)

	w := doJSON(t, r, http.MethodPost, "/users/send-otp", map[string]string{"email": "a@b.co"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, []issueCall{{"a@b.co", services.PurposeEmailVerification}}, f.issued)

	f.issueErr = errors.New("smtp down")
	w = doJSON(t, r, http.MethodPost, "/users/send-otp", map[string]string{"email": "a@b.co"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false}`, w.Body.String())
}

func TestSendOTPRejectsBadBodyBeforeLookup(t *testing.T) {
	f := &fakeVerification{}
	r := verifyRouter(f)

	for _, body := range []any{
		map[string]string{"email": "not-an-email"},
		map[string]string{},
		"{broken",
	} {
		w := doJSON(t, r, http.MethodPost, "/users/send-otp", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.NotEmpty(t, decode(t, w)["detail"])
	}
	assert.Empty(t, f.issued)
}

func TestCheckVerificationCode(t *testing.T) {
	f := &fakeVerification{user: &models.User{ID: 5, Email: "a@b.co", FullName: "Ani", IsVerified: false}}
	r := verifyRouter(f)

	w := doJSON(t, r, http.MethodPost, "/users/check-verification-code",
		map[string]string{"email": "a@b.co", "verification_code": "123456"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"ok": true,
		"message": "Verification code is valid",
		"data": {"user_id": 5, "email": "a@b.co", "full_name": "Ani", "is_verified": false}
	}`, w.Body.String())

	cases := []struct {
		err    error
		status int
		detail string
	}{
		{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{services.ErrCodeInvalid, http.StatusBadRequest, "Invalid verification code"},
		{services.ErrCodeExpired, http.StatusBadRequest, "Verification code expired"},
		{errors.New("db gone"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		f.validateErr = tc.err
		w := doJSON(t, r, http.MethodPost, "/users/check-verification-code",
			map[string]string{"email": "a@b.co", "verification_code": "123456"})
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.detail, decode(t, w)["detail"])
	}
}

func TestCheckVerificationCodeShape(t *testing.T) {
	f := &fakeVerification{}
	r := verifyRouter(f)

	for _, code := range []string{"12345", "1234567"} {
		w := doJSON(t, r, http.MethodPost, "/users/check-verification-code",
			map[string]string{"email": "a@b.co", "verification_code": code})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, code)
	}
	assert.Empty(t, f.validated)

	// длина верная, но не цифры: это просто неверный код
	f.validateErr = services.ErrCodeInvalid
	w := doJSON(t, r, http.MethodPost, "/users/check-verification-code",
		map[string]string{"email": "a@b.co", "verification_code": "12a456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid verification code", decode(t, w)["detail"])
	assert.Equal(t, []string{"a@b.co:12a456"}, f.validated)
}

func TestMalformedResetTokenIsInvalidCode(t *testing.T) {
	f := &fakeVerification{validateErr: services.ErrCodeInvalid, resetErr: services.ErrCodeInvalid}
	r := verifyRouter(f)

	for _, token := range []string{"12345", "abcdef", "1234567"} {
		w := doJSON(t, r, http.MethodPost, "/password/verify-reset-token",
			map[string]string{"email": "a@b.co", "reset_token": token})
		assert.Equal(t, http.StatusBadRequest, w.Code, token)
		assert.Equal(t, "Invalid reset code", decode(t, w)["detail"], token)

		w = doJSON(t, r, http.MethodPost, "/password/reset-password",
			map[string]string{"email": "a@b.co", "reset_token": token, "new_password": "secret123"})
		assert.Equal(t, http.StatusBadRequest, w.Code, token)
		assert.Equal(t, "Invalid reset code", decode(t, w)["detail"], token)
	}
	assert.Len(t, f.validated, 3)
	assert.Len(t, f.reset, 3)

	w := doJSON(t, r, http.MethodPost, "/password/verify-reset-token", map[string]string{"email": "a@b.co"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBadEmailRejectedOnEveryEndpoint(t *testing.T) {
	cases := []struct {
		path string
		body map[string]string
	}{
		{"/users/send-otp", map[string]string{"email": "not-an-email"}},
		{"/users/check-verification-code", map[string]string{"email": "not-an-email", "verification_code": "123456"}},
		{"/password/send-reset-token", map[string]string{"email": "not-an-email"}},
		{"/password/verify-reset-token", map[string]string{"email": "not-an-email", "reset_token": "123456"}},
		{"/password/reset-password", map[string]string{"email": "not-an-email", "reset_token": "123456", "new_password": "secret123"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			f := &fakeVerification{}
			w := doJSON(t, verifyRouter(f), http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.NotEmpty(t, decode(t, w)["detail"])
			assert.Empty(t, f.issued)
			assert.Empty(t, f.validated)
			assert.Empty(t, f.reset)
		})
	}
}

func TestSendResetTokenIsUniform(t *testing.T) {
	f := &fakeVerification{}
	r := verifyRouter(f)

	first := doJSON(t, r, http.MethodPost, "/password/send-reset-token", map[string]string{"email": "known@b.co"})
	f.issueErr = errors.New("mail failed")
	second := doJSON(t, r, http.MethodPost, "/password/send-reset-token", map[string]string{"email": "other@b.co"})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, true, decode(t, first)["ok"])
	assert.Equal(t, services.PurposePasswordReset, f.issued[0].purpose)
}

func TestVerifyResetToken(t *testing.T) {
	f := &fakeVerification{user: &models.User{ID: 1}}
	r := verifyRouter(f)
	body := map[string]string{"email": "a@b.co", "reset_token": "654321"}

	w := doJSON(t, r, http.MethodPost, "/password/verify-reset-token", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reset code verified. You can now reset your password.", decode(t, w)["message"])

	// неизвестный email неотличим от неверного кода
	f.validateErr = services.ErrUserNotFound
	unknown := doJSON(t, r, http.MethodPost, "/password/verify-reset-token", body)
	f.validateErr = services.ErrCodeInvalid
	wrong := doJSON(t, r, http.MethodPost, "/password/verify-reset-token", body)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, "Invalid reset code", decode(t, wrong)["detail"])

	f.validateErr = services.ErrCodeExpired
	w = doJSON(t, r, http.MethodPost, "/password/verify-reset-token", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Reset code expired", decode(t, w)["detail"])
}

func TestResetPassword(t *testing.T) {
	f := &fakeVerification{}
	r := verifyRouter(f)

	w := doJSON(t, r, http.MethodPost, "/password/reset-password",
		map[string]string{"email": "a@b.co", "reset_token": "654321", "new_password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, f.reset)

	w = doJSON(t, r, http.MethodPost, "/password/reset-password",
		map[string]string{"email": "a@b.co", "reset_token": "654321", "new_password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"message":"Password reset successfully"}`, w.Body.String())
	assert.Equal(t, []string{"a@b.co:654321:secret123"}, f.reset)

	f.resetErr = services.ErrCodeExpired
	w = doJSON(t, r, http.MethodPost, "/password/reset-password",
		map[string]string{"email": "a@b.co", "reset_token": "654321", "new_password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Reset code expired", decode(t, w)["detail"])
}
