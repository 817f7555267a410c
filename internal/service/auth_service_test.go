package service

import (
	"testing"
	"time"

	"hangoutapp/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newAuthFixture(otpExpiry time.Duration) (*fakeUserRepo, *fakeNotificationService, AuthService) {
	users := newFakeUserRepo()
	notifs := newFakeNotificationService()
	svc := NewAuthService(users, notifs, testJWTSecret, time.Hour, otpExpiry)
	return users, notifs, svc
}

func TestRequestOTPCreatesUserOnFirstContact(t *testing.T) {
	users, notifs, svc := newAuthFixture(5 * time.Minute)

	require.NoError(t, svc.RequestOTP(RequestOTPInput{Phone: "+15550001", Name: "Alice"}))

	user, err := users.FindByPhone("+15550001")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	require.NotNil(t, user.OTPHash)

	// Only the hash is stored, never the code itself.
	code := notifs.issuedOTPCode()
	require.Len(t, code, 6)
	assert.NotEqual(t, code, *user.OTPHash)
}

func TestVerifyOTPIssuesToken(t *testing.T) {
	users, notifs, svc := newAuthFixture(5 * time.Minute)

	require.NoError(t, svc.RequestOTP(RequestOTPInput{Phone: "+15550001", Name: "Alice"}))
	user, err := users.FindByPhone("+15550001")
	require.NoError(t, err)

	resp, err := svc.VerifyOTP(VerifyOTPInput{Phone: "+15550001", OTPCode: notifs.issuedOTPCode()})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	claims, err := util.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	_, _, svc := newAuthFixture(5 * time.Minute)

	require.NoError(t, svc.RequestOTP(RequestOTPInput{Phone: "+15550001"}))

	_, err := svc.VerifyOTP(VerifyOTPInput{Phone: "+15550001", OTPCode: "000000"})
	assert.Error(t, err)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	_, notifs, svc := newAuthFixture(5 * time.Minute)

	require.NoError(t, svc.RequestOTP(RequestOTPInput{Phone: "+15550001"}))
	code := notifs.issuedOTPCode()

	_, err := svc.VerifyOTP(VerifyOTPInput{Phone: "+15550001", OTPCode: code})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(VerifyOTPInput{Phone: "+15550001", OTPCode: code})
	assert.Error(t, err)
}

func TestVerifyOTPExpired(t *testing.T) {
	_, notifs, svc := newAuthFixture(-time.Minute)

	require.NoError(t, svc.RequestOTP(RequestOTPInput{Phone: "+15550001"}))

	_, err := svc.VerifyOTP(VerifyOTPInput{Phone: "+15550001", OTPCode: notifs.issuedOTPCode()})
	assert.Error(t, err)
}

func TestVerifyOTPUnknownPhone(t *testing.T) {
	_, _, svc := newAuthFixture(5 * time.Minute)

	_, err := svc.VerifyOTP(VerifyOTPInput{Phone: "+15559999", OTPCode: "123456"})
	assert.Error(t, err)
}
