package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
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

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Player struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	IsHost        bool   `json:"isHost"`
	Participating bool   `json:"participating"`
	IsOnline      bool   `json:"isOnline"`
	IsReady       bool   `json:"isReady"`
}

type Game struct {
	Phase string `json:"phase"`
	Round int    `json:"round"`
}

type Room struct {
	Code    string   `json:"code"`
	Players []Player `json:"players"`
	Game    Game     `json:"game"`
}

type RoomResponse struct {
	Room Room `json:"room"`
}

// Register creates a new user account and returns the auth tokens
func (c *APIClient) Register(displayName, password string) (*AuthResponse, error) {
	body := map[string]string{
		"displayName": displayName,
		"password":    password,
	}

	var resp AuthResponse
	if err := c.post("/auth/register", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRoom creates a room as the given user
func (c *APIClient) CreateRoom(token string) (*Room, error) {
	var resp RoomResponse
	if err := c.post("/rooms", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Room, nil
}

// JoinRoom joins an existing room by code
func (c *APIClient) JoinRoom(token, code string) (*Room, error) {
	var resp RoomResponse
	if err := c.post("/rooms/"+code+"/join", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Room, nil
}

// GetRoom fetches a room snapshot by code
func (c *APIClient) GetRoom(token, code string) (*Room, error) {
	var resp RoomResponse
	if err := c.get("/rooms/"+code, token, &resp); err != nil {
		return nil, err
	}
	return &resp.Room, nil
}

func (c *APIClient) post(path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

func (c *APIClient) get(path, token string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
