package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const accessTokenCookie = "access_token"

// APIClient handles HTTP communication with the backend. It keeps the access
// token from Set-Cookie and sends it back as a bearer header, so it also works
// against servers that issue Secure cookies over plain HTTP.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type Account struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"isActive"`
}

type SignUpResponse struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// StatusError carries a non-success response.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Body)
}

func (c *APIClient) Token() string {
	return c.token
}

func (c *APIClient) SignUp(username, password string) (*SignUpResponse, error) {
	var result SignUpResponse
	if err := c.do("sign up", http.MethodPost, "/account/signup", credentials(username, password), http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) LogIn(username, password string) (*MessageResponse, error) {
	var result MessageResponse
	if err := c.do("log in", http.MethodPost, "/account/login", credentials(username, password), http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Me() (*Account, error) {
	var account Account
	if err := c.do("me", http.MethodGet, "/account/me", nil, http.StatusOK, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *APIClient) LogOut() (*MessageResponse, error) {
	var result MessageResponse
	if err := c.do("log out", http.MethodDelete, "/account/logout", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) LogOutEverywhere() (*MessageResponse, error) {
	var result MessageResponse
	if err := c.do("log out everywhere", http.MethodDelete, "/account/logout/all", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func credentials(username, password string) map[string]string {
	return map[string]string{
		"username": username,
		"password": password,
	}
}

func (c *APIClient) do(op, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	c.trackToken(resp)

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *APIClient) trackToken(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != accessTokenCookie {
			continue
		}
		if cookie.MaxAge < 0 || cookie.Value == "" {
			c.token = ""
		} else {
			c.token = cookie.Value
		}
	}
}
