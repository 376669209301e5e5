// Package client implements the HTTP client for the registry API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seatwise-systems/seatwise/internal/models"
)

// Client talks to the registry API. A token is attached to every request
// when set.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed: HTTP %d", resp.StatusCode)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) CreateAccount(req *models.CreateAccountRequest) (*models.User, error) {
	var user models.User
	if err := c.do(http.MethodPost, "/api/v1/accounts", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(http.MethodPost, "/api/v1/auth/login", &models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListEvents(limit, page int) (*models.EventListResponse, error) {
	var resp models.EventListResponse
	path := fmt.Sprintf("/api/v1/events?limit=%d&page=%d", limit, page)
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetEvent(id string) (*models.Event, error) {
	var event models.Event
	if err := c.do(http.MethodGet, "/api/v1/events/"+id, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) CreateEvent(req *models.CreateEventRequest) (*models.Event, error) {
	var event models.Event
	if err := c.do(http.MethodPost, "/api/v1/events", req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(id string, req *models.UpdateEventRequest) (*models.Event, error) {
	var event models.Event
	if err := c.do(http.MethodPut, "/api/v1/events/"+id, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(id string) error {
	return c.do(http.MethodDelete, "/api/v1/events/"+id, nil, nil)
}

func (c *Client) Register(eventID string) (*models.SubmitResponse, error) {
	var resp models.SubmitResponse
	if err := c.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Unregister(eventID string) error {
	return c.do(http.MethodDelete, "/api/v1/events/"+eventID+"/register", nil, nil)
}

func (c *Client) RegistrationCount(eventID string) (*models.RegistrationCountResponse, error) {
	var resp models.RegistrationCountResponse
	if err := c.do(http.MethodGet, "/api/v1/events/"+eventID+"/registrations/count", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
