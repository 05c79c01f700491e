package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamastoria/internal/models"
)

const testTTL = 15 * time.Minute

func newVerificationFixture(t *testing.T) (*fakeUsers, *fakeEmails, *fixedClock, VerificationService) {
	t.Helper()
	users := newFakeUsers(&models.User{
		ID:           7,
		Email:        "reader@example.com",
		PhoneNumber:  "628111",
		PasswordHash: "hashed:old-password",
	})
	emails := &fakeEmails{}
	clock, now := newClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return users, emails, clock, NewVerificationService(users, emails, plainHasher{}, testTTL, now)
}

func TestIssue_StoresAndMailsSameCode(t *testing.T) {
	users, emails, clock, svc := newVerificationFixture(t)

	require.NoError(t, svc.Issue(context.Background(), "reader@example.com", PurposePasswordReset))

	require.Len(t, emails.sent, 1)
	mail := emails.last()
	assert.Equal(t, "reader@example.com", mail.to)
	assert.Equal(t, PurposePasswordReset, mail.purpose)
	assert.Len(t, mail.code, 6)

	u := users.byID[7]
	require.NotNil(t, u.VerificationCode)
	assert.Equal(t, mail.code, *u.VerificationCode)
	assert.Equal(t, clock.Now(), *u.LastVerificationSentAt)
}

func TestIssue_NormalizesEmail(t *testing.T) {
	_, emails, _, svc := newVerificationFixture(t)

	require.NoError(t, svc.Issue(context.Background(), "  Reader@Example.COM ", PurposeEmailVerification))
	require.Len(t, emails.sent, 1)
	assert.Equal(t, PurposeEmailVerification, emails.last().purpose)
}

func TestIssue_UnknownEmailIsSilent(t *testing.T) {
	users, emails, _, svc := newVerificationFixture(t)

	require.NoError(t, svc.Issue(context.Background(), "nobody@example.com", PurposeEmailVerification))
	assert.Empty(t, emails.sent)
	assert.Nil(t, users.byID[7].VerificationCode)
}

func TestIssue_MailFailureIsReported(t *testing.T) {
	_, emails, _, svc := newVerificationFixture(t)
	emails.err = errors.New("smtp down")

	err := svc.Issue(context.Background(), "reader@example.com", PurposeEmailVerification)
	require.Error(t, err)
	assert.ErrorIs(t, err, emails.err)
}

func TestIssue_StoreFailureSendsNothing(t *testing.T) {
	users, emails, _, svc := newVerificationFixture(t)
	users.failSet = errors.New("db down")

	require.Error(t, svc.Issue(context.Background(), "reader@example.com", PurposeEmailVerification))
	assert.Empty(t, emails.sent)
}

func TestIssue_LastCodeWins(t *testing.T) {
	_, emails, clock, svc := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposeEmailVerification))
	first := emails.last().code
	clock.Advance(time.Second)

	// повторная выдача может совпасть по значению; перевыпускаем до отличия
	var second string
	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposeEmailVerification))
		second = emails.last().code
		if second != first {
			break
		}
	}
	require.NotEqual(t, first, second)

	_, err := svc.Validate(ctx, "reader@example.com", first)
	assert.ErrorIs(t, err, ErrCodeInvalid)

	u, err := svc.Validate(ctx, "reader@example.com", second)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
}

func TestValidate_Errors(t *testing.T) {
	users, _, clock, svc := newVerificationFixture(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "missing@example.com", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Validate(ctx, "reader@example.com", "123456")
	assert.ErrorIs(t, err, ErrCodeInvalid, "no code issued")

	code := "654321"
	users.byID[7].VerificationCode = &code
	_, err = svc.Validate(ctx, "reader@example.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired, "code without sent_at")

	sent := clock.Now()
	users.byID[7].LastVerificationSentAt = &sent
	_, err = svc.Validate(ctx, "reader@example.com", "000000")
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	users, _, clock, svc := newVerificationFixture(t)
	ctx := context.Background()

	code := "111222"
	sent := clock.Now()
	users.byID[7].VerificationCode = &code
	users.byID[7].LastVerificationSentAt = &sent

	clock.Advance(testTTL - time.Second)
	_, err := svc.Validate(ctx, "reader@example.com", code)
	require.NoError(t, err, "899s is still valid")

	clock.Advance(time.Second)
	_, err = svc.Validate(ctx, "reader@example.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired, "900s is expired")
}

func TestValidate_DoesNotConsume(t *testing.T) {
	_, emails, _, svc := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposePasswordReset))
	code := emails.last().code

	for i := 0; i < 3; i++ {
		_, err := svc.Validate(ctx, "reader@example.com", code)
		require.NoError(t, err)
	}
}

func TestResetPassword_ConsumesCode(t *testing.T) {
	users, emails, _, svc := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposePasswordReset))
	code := emails.last().code

	require.NoError(t, svc.ResetPassword(ctx, "reader@example.com", code, "new-secret"))

	u := users.byID[7]
	assert.Equal(t, "hashed:new-secret", u.PasswordHash)
	assert.Nil(t, u.VerificationCode)

	err := svc.ResetPassword(ctx, "reader@example.com", code, "another")
	assert.ErrorIs(t, err, ErrCodeInvalid)
	assert.Equal(t, "hashed:new-secret", users.byID[7].PasswordHash)
}

func TestResetPassword_ExpiredKeepsPassword(t *testing.T) {
	users, emails, clock, svc := newVerificationFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposePasswordReset))
	code := emails.last().code

	clock.Advance(testTTL)
	err := svc.ResetPassword(ctx, "reader@example.com", code, "new-secret")
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.Equal(t, "hashed:old-password", users.byID[7].PasswordHash)
	assert.NotNil(t, users.byID[7].VerificationCode)
}

func TestValidate_MalformedCandidateIsMismatch(t *testing.T) {
	users, _, clock, svc := newVerificationFixture(t)
	ctx := context.Background()

	code := "123456"
	sent := clock.Now()
	users.byID[7].VerificationCode = &code
	users.byID[7].LastVerificationSentAt = &sent

	for _, candidate := range []string{"12345", "abcdef", "1234567", "12a456", ""} {
		_, err := svc.Validate(ctx, "reader@example.com", candidate)
		assert.ErrorIs(t, err, ErrCodeInvalid, candidate)
		err = svc.ResetPassword(ctx, "reader@example.com", candidate, "new-secret")
		assert.ErrorIs(t, err, ErrCodeInvalid, candidate)
	}
	assert.Equal(t, "hashed:old-password", users.byID[7].PasswordHash)

	// неизвестный email проверяется раньше формата
	_, err := svc.Validate(ctx, "missing@example.com", "abcdef")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetFlow_ExpiryThenFreshCode(t *testing.T) {
	users, emails, clock, svc := newVerificationFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposePasswordReset))
	first := emails.last().code

	clock.Advance(10 * time.Minute)
	_, err := svc.Validate(ctx, "reader@example.com", first)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = svc.Validate(ctx, "reader@example.com", first)
	assert.ErrorIs(t, err, ErrCodeExpired)

	require.NoError(t, svc.Issue(ctx, "reader@example.com", PurposePasswordReset))
	fresh := emails.last().code
	require.NoError(t, svc.ResetPassword(ctx, "reader@example.com", fresh, "new-secret"))
	assert.Equal(t, "hashed:new-secret", users.byID[7].PasswordHash)

	err = svc.ResetPassword(ctx, "reader@example.com", fresh, "third-secret")
	assert.ErrorIs(t, err, ErrCodeInvalid)
	assert.Equal(t, "hashed:new-secret", users.byID[7].PasswordHash)
}
