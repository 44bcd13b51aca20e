package handlers_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olehkozhan/contactbook/internal/handlers/testutil"
	"github.com/olehkozhan/contactbook/internal/models"
)

func TestAuthHandler_RegisterVerifyLoginLogout(t *testing.T) {
	env := testutil.NewEnv(t)

	user := env.Register("kate@example.com", "Passw0rd!")
	require.False(t, user.Verified)
	require.NotNil(t, user.VerificationToken)

	// Registration dispatched a verification email containing the link.
	env.Runner.Wait()
	sent := env.Mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"kate@example.com"}, sent[0].To)
	require.Contains(t, sent[0].Body, "/api/users/verify/"+*user.VerificationToken)

	// Unverified accounts cannot log in.
	denied := env.Request(http.MethodPost, "/api/users/login", map[string]string{
		"email":    "kate@example.com",
		"password": "Passw0rd!",
	}, "")
	require.Equal(t, http.StatusForbidden, denied.Code)
	require.Equal(t, "EMAIL_NOT_VERIFIED", testutil.DecodeResponse(t, denied).Error.Code)

	verify := env.Request(http.MethodGet, "/api/users/verify/"+*user.VerificationToken, nil, "")
	require.Equal(t, http.StatusOK, verify.Code)

	// The verification token is single-use.
	replay := env.Request(http.MethodGet, "/api/users/verify/"+*user.VerificationToken, nil, "")
	require.Equal(t, http.StatusNotFound, replay.Code)

	login := env.Login("kate@example.com", "Passw0rd!")
	require.Equal(t, "starter", login.User.Subscription)

	current := env.Request(http.MethodGet, "/api/users/current", nil, login.Token)
	require.Equal(t, http.StatusOK, current.Code)
	var payload testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, current).Data, &payload)
	require.Equal(t, "kate@example.com", payload.Email)

	logout := env.Request(http.MethodPost, "/api/users/logout", nil, login.Token)
	require.Equal(t, http.StatusNoContent, logout.Code)

	// The token no longer resolves after logout.
	after := env.Request(http.MethodGet, "/api/users/current", nil, login.Token)
	require.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestAuthHandler_SecondLoginRevokesFirstSession(t *testing.T) {
	env := testutil.NewEnv(t)
	env.RegisterVerified("kate@example.com", "Passw0rd!")

	first := env.Login("kate@example.com", "Passw0rd!")

	env.AdvanceClock(time.Minute)
	second := env.Login("kate@example.com", "Passw0rd!")
	require.NotEqual(t, first.Token, second.Token)

	stale := env.Request(http.MethodGet, "/api/users/current", nil, first.Token)
	require.Equal(t, http.StatusUnauthorized, stale.Code)

	active := env.Request(http.MethodGet, "/api/users/current", nil, second.Token)
	require.Equal(t, http.StatusOK, active.Code)
}

func TestAuthHandler_RegisterValidationAndConflict(t *testing.T) {
	env := testutil.NewEnv(t)

	bad := env.Request(http.MethodPost, "/api/users/register", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, bad.Code)
	require.Equal(t, "BAD_REQUEST", testutil.DecodeResponse(t, bad).Error.Code)

	env.Register("kate@example.com", "Passw0rd!")

	dup := env.Request(http.MethodPost, "/api/users/register", map[string]string{
		"email":    "kate@example.com",
		"password": "Other0pass",
	}, "")
	require.Equal(t, http.StatusConflict, dup.Code)
	require.Equal(t, "EMAIL_IN_USE", testutil.DecodeResponse(t, dup).Error.Code)
}

func TestAuthHandler_LoginWrongPasswordMatchesUnknownEmail(t *testing.T) {
	env := testutil.NewEnv(t)
	env.RegisterVerified("kate@example.com", "Passw0rd!")

	wrongPass := env.Request(http.MethodPost, "/api/users/login", map[string]string{
		"email":    "kate@example.com",
		"password": "Wrong0pass",
	}, "")
	unknown := env.Request(http.MethodPost, "/api/users/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "Passw0rd!",
	}, "")

	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t,
		testutil.DecodeResponse(t, unknown).Error,
		testutil.DecodeResponse(t, wrongPass).Error)
}

func TestAuthHandler_ResendVerification(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.Register("kate@example.com", "Passw0rd!")
	env.Runner.Wait()

	resent := env.Request(http.MethodPost, "/api/users/verify", map[string]string{
		"email": "kate@example.com",
	}, "")
	require.Equal(t, http.StatusOK, resent.Code)

	env.Runner.Wait()
	sent := env.Mailer.Sent()
	require.Len(t, sent, 2)
	require.Contains(t, sent[1].Body, *user.VerificationToken)

	missing := env.Request(http.MethodPost, "/api/users/verify", map[string]string{
		"email": "nobody@example.com",
	}, "")
	require.Equal(t, http.StatusNotFound, missing.Code)

	env.RegisterVerified("john@example.com", "Passw0rd!")
	already := env.Request(http.MethodPost, "/api/users/verify", map[string]string{
		"email": "john@example.com",
	}, "")
	require.Equal(t, http.StatusBadRequest, already.Code)
	require.Equal(t, "ALREADY_VERIFIED", testutil.DecodeResponse(t, already).Error.Code)
}

func TestAuthHandler_UpdateSubscription(t *testing.T) {
	env := testutil.NewEnv(t)
	env.RegisterVerified("kate@example.com", "Passw0rd!")
	login := env.Login("kate@example.com", "Passw0rd!")

	upgraded := env.Request(http.MethodPatch, "/api/users/subscription", map[string]string{
		"subscription": "pro",
	}, login.Token)
	require.Equal(t, http.StatusOK, upgraded.Code)
	var payload testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, upgraded).Data, &payload)
	require.Equal(t, "pro", payload.Subscription)

	invalid := env.Request(http.MethodPatch, "/api/users/subscription", map[string]string{
		"subscription": "platinum",
	}, login.Token)
	require.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestAuthHandler_UpdateAvatar(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.RegisterVerified("kate@example.com", "Passw0rd!")
	login := env.Login("kate@example.com", "Passw0rd!")

	var imgBuf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	require.NoError(t, jpeg.Encode(&imgBuf, img, nil))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", "me.jpg")
	require.NoError(t, err)
	_, err = part.Write(imgBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPatch, "/api/users/avatar", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+login.Token)

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data map[string]string
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	require.Equal(t, "avatars/"+user.ID+"_me.jpg", data["avatarURL"])

	var stored models.User
	require.NoError(t, env.DB.Take(&stored, "id = ?", user.ID).Error)
	require.Equal(t, data["avatarURL"], stored.AvatarURL)

	missing := env.Request(http.MethodPatch, "/api/users/avatar", nil, login.Token)
	require.Equal(t, http.StatusBadRequest, missing.Code)
}
