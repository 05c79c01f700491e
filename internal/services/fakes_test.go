package services

import (
	"context"
	"sync"
	"time"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

// fakeUsers is an in-memory UserRepository.
type fakeUsers struct {
	mu        sync.Mutex
	byID      map[int]*models.User
	nextID    int
	referrals int
	failSet   error

	refList []*models.Referral
	updates map[int][]time.Time // profile_updates
	now     Clock
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[int]*models.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = f.nextID
		}
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			return f.copyOf(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = f.copyOf(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email != "" && u.Email == email })
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.PhoneNumber == phone })
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return u.PhoneNumber == id || (u.Email != "" && u.Email == id) || (u.Username != "" && u.Username == id)
	})
}

func (f *fakeUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ReferralCode == code })
}

func (f *fakeUsers) update(id int, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, user *models.User) error {
	return f.update(user.ID, func(u *models.User) { *u = *user })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	return f.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) UpdatePhotoPath(_ context.Context, id int, path string) error {
	return f.update(id, func(u *models.User) { u.ProfilePhotoPath = &path })
}

func (f *fakeUsers) UpdateFCMToken(_ context.Context, id int, token *string) error {
	return f.update(id, func(u *models.User) { u.FCMToken = token })
}

func (f *fakeUsers) UpdateWatermark(_ context.Context, id int, on bool) error {
	return f.update(id, func(u *models.User) { u.Watermark = on })
}

func (f *fakeUsers) LogProfileUpdate(_ context.Context, id int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[int][]time.Time{}
	}
	at := time.Now()
	if f.now != nil {
		at = f.now()
	}
	f.updates[id] = append(f.updates[id], at)
	return nil
}

func (f *fakeUsers) ProfileUpdatesSince(_ context.Context, id int, since time.Time) (int, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		n      int
		oldest *time.Time
	)
	for _, at := range f.updates[id] {
		if !at.After(since) {
			continue
		}
		n++
		if oldest == nil || at.Before(*oldest) {
			t := at
			oldest = &t
		}
	}
	return n, oldest, nil
}

func (f *fakeUsers) SetVerificationCode(_ context.Context, id int, code string, sentAt time.Time) error {
	if f.failSet != nil {
		return f.failSet
	}
	return f.update(id, func(u *models.User) {
		u.VerificationCode = &code
		u.LastVerificationSentAt = &sentAt
	})
}

func (f *fakeUsers) ResetPasswordWithCode(_ context.Context, id int, code, hash string) (bool, error) {
	ok := false
	err := f.update(id, func(u *models.User) {
		if u.VerificationCode == nil || *u.VerificationCode != code {
			return
		}
		u.PasswordHash = hash
		u.VerificationCode = nil
		ok = true
	})
	return ok, err
}

func (f *fakeUsers) MarkVerified(_ context.Context, id int, code string) (bool, error) {
	ok := false
	err := f.update(id, func(u *models.User) {
		if u.VerificationCode == nil || *u.VerificationCode != code {
			return
		}
		u.IsVerified = true
		u.VerificationCode = nil
		ok = true
	})
	return ok, err
}

func (f *fakeUsers) AdjustKredit(_ context.Context, id int, delta int64) (int64, error) {
	var bal int64
	var insufficient bool
	err := f.update(id, func(u *models.User) {
		if u.Kredit+delta < 0 {
			insufficient = true
			return
		}
		u.Kredit += delta
		bal = u.Kredit
	})
	if insufficient {
		return 0, repositories.ErrInsufficientCredit
	}
	return bal, err
}

func (f *fakeUsers) CountReferrals(_ context.Context, _ string) (int64, error) {
	return int64(f.referrals), nil
}

func (f *fakeUsers) CreateReferral(_ context.Context, _, _ int, _ string) error {
	f.referrals++
	return nil
}

func (f *fakeUsers) ListReferrals(_ context.Context, referrerID int) ([]*models.Referral, error) {
	out := []*models.Referral{}
	for _, r := range f.refList {
		if r.ReferrerID == referrerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateRefresh(_ context.Context, id int, token string, exp time.Time) error {
	return f.update(id, func(u *models.User) {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &exp
	})
}

func (f *fakeUsers) RotateRefresh(ctx context.Context, old, token string, exp time.Time) (*models.User, error) {
	u, err := f.GetByRefreshToken(ctx, old)
	if err != nil {
		return nil, err
	}
	if err := f.UpdateRefresh(ctx, u.ID, token, exp); err != nil {
		return nil, err
	}
	return f.GetByID(ctx, u.ID)
}

func (f *fakeUsers) GetByRefreshToken(_ context.Context, token string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token })
}

func (f *fakeUsers) ClearRefresh(_ context.Context, id int) error {
	return f.update(id, func(u *models.User) {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
	})
}

type sentMail struct {
	to, code string
	purpose  CodePurpose
}

// fakeEmails records deliveries instead of sending.
type fakeEmails struct {
	sent []sentMail
	err  error
}

func (f *fakeEmails) SendVerificationCode(_ context.Context, to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, code: code, purpose: PurposeEmailVerification})
	return nil
}

func (f *fakeEmails) SendPasswordResetCode(_ context.Context, to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, code: code, purpose: PurposePasswordReset})
	return nil
}

func (f *fakeEmails) last() sentMail {
	return f.sent[len(f.sent)-1]
}

// plainHasher keeps tests fast; format "hashed:<pw>".
type plainHasher struct{}

func (plainHasher) HashPassword(pw string) (string, error) { return "hashed:" + pw, nil }
func (plainHasher) CheckPassword(hash, pw string) bool     { return hash == "hashed:"+pw }

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock(t time.Time) (*fixedClock, Clock) {
	c := &fixedClock{t: t}
	return c, c.Now
}

func strPtr(s string) *string { return &s }

// fakeNotifications captures Notify calls.
type notifyCall struct {
	userID               int
	kind, title, message string
	data                 map[string]any
}

type fakeNotifications struct {
	NotificationService
	calls []notifyCall
}

func (f *fakeNotifications) Notify(_ context.Context, userID int, kind, title, message string, data map[string]any) error {
	f.calls = append(f.calls, notifyCall{userID: userID, kind: kind, title: title, message: message, data: data})
	return nil
}
