package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/testutil"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/users", "", map[string]string{
		"email":    "test@EXAMPLE.com",
		"password": "testpass123",
		"name":     "Test Name",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Test Name", body["name"])
	assert.NotContains(t, body, "password")

	u, err := db.FindUserByEmail(env.db, "test@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("testpass123")))
}

func TestRegister_Invalid(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewUser(t, env.db, "taken@example.com")

	cases := map[string]struct {
		body  map[string]string
		field string
	}{
		"duplicate email": {map[string]string{"email": "taken@example.com", "password": "testpass123", "name": "N"}, "email"},
		"bad email":       {map[string]string{"email": "not-an-email", "password": "testpass123", "name": "N"}, "email"},
		"short password":  {map[string]string{"email": "new@example.com", "password": "pw", "name": "N"}, "password"},
		"missing name":    {map[string]string{"email": "new@example.com", "password": "testpass123"}, "name"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/users", "", c.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string][]string](t, rec), c.field)
		})
	}

	taken, err := db.EmailTaken(env.db, "new@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestToken(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodPost, "/token", "", map[string]string{
		"email":    "user@example.com",
		"password": testutil.Password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, *user.Token, decode[TokenResp](t, rec).Token)
}

func TestToken_Invalid(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewUser(t, env.db, "user@example.com")

	cases := map[string]map[string]string{
		"bad password":   {"email": "user@example.com", "password": "wrong"},
		"unknown email":  {"email": "nobody@example.com", "password": testutil.Password},
		"blank password": {"email": "user@example.com", "password": ""},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/token", "", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotContains(t, decode[map[string]interface{}](t, rec), "token")
		})
	}

	rec := env.do(http.MethodPost, "/token", "", map[string]string{"email": "user@example.com", "password": "wrong"})
	assert.Contains(t, decode[map[string][]string](t, rec), service.NonFieldErrors)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodGet, "/users/me", *user.Token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, UserResp{Email: "user@example.com", Name: "Test User"}, decode[UserResp](t, rec))
}

func TestMe_Unauthorized(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/users/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided.", decode[DetailResp](t, rec).Detail)
}

func TestMe_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		rec := env.do(method, "/users/me", *user.Token, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestMeUpdate(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodPatch, "/users/me", *user.Token, map[string]string{
		"name":     "Updated Name",
		"password": "newpassword123",
		"email":    "hijack@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, UserResp{Email: "user@example.com", Name: "Updated Name"}, decode[UserResp](t, rec))

	stored, err := db.FindUserByEmail(env.db, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", stored.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpassword123")))

	rec = env.do(http.MethodPut, "/users/me", *user.Token, map[string]string{"password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
