package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	msgs     []Message
	deadline bool
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	_, m.deadline = ctx.Deadline()
	m.msgs = append(m.msgs, msg)
	return nil
}

func TestEmailService_Templates(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer, 5*time.Second, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.SendVerificationCode(ctx, "a@example.com", "123456"))
	require.NoError(t, svc.SendPasswordResetCode(ctx, "a@example.com", "654321"))

	require.Len(t, mailer.msgs, 2)
	assert.Equal(t, "Your Verification Code", mailer.msgs[0].Subject)
	assert.Contains(t, mailer.msgs[0].HTML, "123456")
	assert.Contains(t, mailer.msgs[0].HTML, "15 minutes")
	assert.Equal(t, "Password Reset Code", mailer.msgs[1].Subject)
	assert.Contains(t, mailer.msgs[1].HTML, "654321")
	assert.True(t, mailer.deadline, "send timeout applied")
}

func TestResendMailer_Send(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "MamaStoria <noreply@example.com>", srv.URL, srv.Client())
	err := m.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "MamaStoria <noreply@example.com>", got.From)
}

func TestResendMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "x@example.com", srv.URL, srv.Client())
	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
