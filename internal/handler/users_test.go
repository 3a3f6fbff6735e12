package handler_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	ts := testServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@example.com","password":"secret123"}`},
		{"missing email", `{"name":"A","password":"secret123"}`},
		{"bad email", `{"name":"A","email":"nope","password":"secret123"}`},
		{"short password", `{"name":"A","email":"a@example.com","password":"abc"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := testServer(t)

	body := `{"name":"A","email":"dup@example.com","password":"secret123"}`
	resp, err := http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_DoesNotLeakPasswordHash(t *testing.T) {
	ts := testServer(t)

	body := `{"name":"A","email":"leak@example.com","password":"secret123"}`
	resp, err := http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)

	var out map[string]interface{}
	decodeResponse(t, resp, &out)
	assert.NotContains(t, out, "passwordHash")
	assert.NotContains(t, out, "password")
	assert.Equal(t, "leak@example.com", out["email"])
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := testServer(t)

	body := `{"name":"A","email":"login@example.com","password":"secret123"}`
	resp, err := http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	bad := `{"email":"login@example.com","password":"wrong-password"}`
	resp, err = http.Post(ts.URL+"/api/users/login", "application/json", bytes.NewBufferString(bad))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_UnknownEmail(t *testing.T) {
	ts := testServer(t)

	body := `{"email":"ghost@example.com","password":"secret123"}`
	resp, err := http.Post(ts.URL+"/api/users/login", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	ts := testServer(t)
	token := registerAndLogin(t, ts)

	resp, err := http.DefaultClient.Do(authReq(t, http.MethodGet, ts.URL+"/api/users/me", token, nil))
	require.NoError(t, err)

	var out map[string]interface{}
	decodeResponse(t, resp, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test", out["name"])
}

func TestMe_Unauthenticated(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/users/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
