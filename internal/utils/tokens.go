package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const codeDigits = 6

func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewVerificationCode returns a zero-padded 6 digit code ("004217").
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsVerificationCode reports whether s looks like a code we could have issued.
func IsVerificationCode(s string) bool {
	return len(s) == codeDigits && IsDigits(s)
}

// IsDigits: непустая строка только из ASCII-цифр.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

const referralLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReferralCode builds codes like "42QX1234": two digits, two letters and
// the last four digits of the unix time.
func NewReferralCode(now time.Time) (string, error) {
	var sb strings.Builder
	for i := 0; i < 2; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	for i := 0; i < 2; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralLetters))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(referralLetters[n.Int64()])
	}
	ts := fmt.Sprintf("%d", now.Unix())
	sb.WriteString(ts[len(ts)-4:])
	return sb.String(), nil
}

// DigitsOnly strips everything but 0-9, used for phone numbers.
func DigitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
