package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/session-auth/internal/api/handlers"
	"github.com/dom/session-auth/internal/service"
	"github.com/dom/session-auth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func doRequest(t *testing.T, client *http.Client, method, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAccountHandler_SignUp(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        interface{}
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful sign up",
			request:        map[string]string{"username": "alice01", "password": "secret123"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result service.SignUpResult
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "alice01", result.Username)
				assert.Equal(t, "CREATED", result.Status)
				assert.Nil(t, testutil.AccessTokenCookie(resp))
			},
		},
		{
			name:           "duplicate username",
			request:        map[string]string{"username": "alice01", "password": "secret123"},
			setup:          func() { testutil.NewAccountBuilder().WithUsername("alice01").Build(t, ts.DB.DB) },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid fields",
			request:        map[string]string{"username": "a", "password": "1"},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var body testutil.ErrorBody
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Contains(t, body.Details, "username")
				assert.Contains(t, body.Details, "password")
			},
		},
		{
			name:           "malformed body",
			request:        "not an object",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)
			if tt.setup != nil {
				tt.setup()
			}

			resp := postJSON(t, ts.NewClient(t), ts.APIURL("/account/signup"), tt.request)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAccountHandler_SignUpConstraintConflict(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// An uncommitted insert passes the service's uniqueness check, so the
	// request's own insert waits on the index and then hits the constraint.
	pending := ts.DB.DB.Begin()
	require.NoError(t, pending.Error)
	testutil.NewAccountBuilder().WithUsername("bob01").Build(t, pending)

	client := ts.NewClient(t)
	payload, err := json.Marshal(map[string]string{"username": "bob01", "password": "secret123"})
	require.NoError(t, err)

	done := make(chan *http.Response, 1)
	go func() {
		resp, err := client.Post(ts.APIURL("/account/signup"), "application/json", bytes.NewReader(payload))
		if err != nil {
			done <- nil
			return
		}
		done <- resp
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, pending.Commit().Error)

	var resp *http.Response
	select {
	case resp = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("sign up did not finish")
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body testutil.ErrorBody
	testutil.AssertJSONResponse(t, resp, &body)
	assert.Equal(t, "username already exists: bob01", body.Description)
	assert.NotContains(t, body.Description, "SQLSTATE")
	assert.NotContains(t, body.Description, "uq_accounts_username")
}

func TestAccountHandler_LogIn(t *testing.T) {
	ts := testutil.NewTestServer(t)
	account, password := testutil.NewAccountBuilder().WithUsername("alice01").Build(t, ts.DB.DB)
	testutil.NewAccountBuilder().WithUsername("sleeper").Inactive().Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful log in",
			request:        map[string]string{"username": account.Username, "password": password},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result service.MessageResult
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "Logged in: successful.", result.Message)

				cookie := testutil.AccessTokenCookie(resp)
				require.NotNil(t, cookie)
				assert.NotEmpty(t, cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.Equal(t, "/", cookie.Path)
			},
		},
		{
			name:           "wrong password",
			request:        map[string]string{"username": account.Username, "password": "wrong-password"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown account",
			request:        map[string]string{"username": "nobody", "password": password},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "inactive account",
			request:        map[string]string{"username": "sleeper", "password": "testpassword123"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.NewClient(t), ts.APIURL("/account/login"), tt.request)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAccountHandler_Flow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := ts.NewClient(t)
	credentials := map[string]string{"username": "alice01", "password": "secret123"}

	resp := postJSON(t, client, ts.APIURL("/account/signup"), credentials)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, client, ts.APIURL("/account/login"), credentials)
	stale := testutil.AccessTokenCookie(resp)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, stale)

	t.Run("second log in is rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.APIURL("/account/login"), credentials)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "already authenticated")
	})

	t.Run("sign up while authenticated is rejected", func(t *testing.T) {
		resp := postJSON(t, client, ts.APIURL("/account/signup"), map[string]string{"username": "alice02", "password": "secret123"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me", func(t *testing.T) {
		resp := doRequest(t, client, http.MethodGet, ts.APIURL("/account/me"))
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var me handlers.AccountResponse
		testutil.AssertJSONResponse(t, resp, &me)
		assert.Equal(t, "alice01", me.Username)
		assert.True(t, me.IsActive)
	})

	t.Run("bearer header works too", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.APIURL("/account/me"), nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+stale.Value)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("log out clears the cookie", func(t *testing.T) {
		resp := doRequest(t, client, http.MethodDelete, ts.APIURL("/account/logout"))
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		cookie := testutil.AccessTokenCookie(resp)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Less(t, cookie.MaxAge, 0)
	})

	t.Run("stale token is rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.APIURL("/account/logout"), nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: stale.Name, Value: stale.Value})
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "not authenticated")
	})

	t.Run("me without session", func(t *testing.T) {
		resp := doRequest(t, client, http.MethodGet, ts.APIURL("/account/me"))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAccountHandler_LogOutEverywhere(t *testing.T) {
	ts := testutil.NewTestServer(t)
	builder := testutil.NewAccountBuilder().WithUsername("alice01")

	phone, laptop := ts.NewClient(t), ts.NewClient(t)
	builder.SignUpAndLogIn(t, ts, phone)
	resp := postJSON(t, laptop, ts.APIURL("/account/login"), map[string]string{"username": "alice01", "password": "testpassword123"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, phone, http.MethodDelete, ts.APIURL("/account/logout/all"))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, laptop, http.MethodGet, ts.APIURL("/account/me"))
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsersHandler_List(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewAccountBuilder().WithUsername("admin").WithRoles("user", "admin").Build(t, ts.DB.DB)
	testutil.NewAccountBuilder().WithUsername("bobby").Build(t, ts.DB.DB)
	testutil.NewAccountBuilder().WithUsername("carol").Build(t, ts.DB.DB)

	admin := ts.NewClient(t)
	resp := postJSON(t, admin, ts.APIURL("/account/login"), map[string]string{"username": "admin", "password": "testpassword123"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user := ts.NewClient(t)
	resp = postJSON(t, user, ts.APIURL("/account/login"), map[string]string{"username": "bobby", "password": "testpassword123"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name           string
		client         *http.Client
		query          string
		expectedStatus int
		wantNames      []string
	}{
		{name: "admin default page", client: admin, expectedStatus: http.StatusOK, wantNames: []string{"admin", "bobby", "carol"}},
		{name: "admin paged", client: admin, query: "?limit=1&offset=1", expectedStatus: http.StatusOK, wantNames: []string{"bobby"}},
		{name: "limit too large", client: admin, query: "?limit=500", expectedStatus: http.StatusBadRequest},
		{name: "limit not a number", client: admin, query: "?limit=ten", expectedStatus: http.StatusBadRequest},
		{name: "plain user", client: user, expectedStatus: http.StatusForbidden},
		{name: "anonymous", client: ts.NewClient(t), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, tt.client, http.MethodGet, ts.APIURL("/users"+tt.query))
			defer resp.Body.Close()

			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.wantNames == nil {
				return
			}
			var result handlers.UsersResponse
			testutil.AssertJSONResponse(t, resp, &result)
			names := make([]string, 0, len(result.Users))
			for _, u := range result.Users {
				names = append(names, u.Username)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestRouter_Health(t *testing.T) {
	ts := testutil.NewTestServer(t)

	for _, url := range []string{ts.BaseURL() + "/health", ts.APIURL("/")} {
		resp, err := http.Get(url)
		require.NoError(t, err)
		var body map[string]string
		testutil.AssertJSONResponse(t, resp, &body)
		resp.Body.Close()
		assert.Equal(t, "ok", body["status"])
	}
}
