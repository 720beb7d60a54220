// Package client calls the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"task-tracker/models"
)

// ErrNotFound is returned when the API reports the task does not exist.
var ErrNotFound = errors.New("task not found")

// notFoundMessage is the error body the API sends for a missing task.
const notFoundMessage = "Task not found"

// APIError is a non-2xx response other than not-found.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task api: %d %s", e.StatusCode, e.Message)
}

// Client talks to one task API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a 10s timeout default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Create(ctx context.Context, title string, description *string) (models.Task, error) {
	var task models.Task
	body := models.NewTask{Title: title, Description: description}
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) (models.Task, error) {
	var task models.Task
	path := "/tasks/" + strconv.FormatInt(id, 10) + "?" + url.Values{"completed": {strconv.FormatBool(completed)}}.Encode()
	if err := c.do(ctx, http.MethodPut, path, nil, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		// A 404 without the API's body is an unknown route, e.g. a wrong base URL.
		if resp.StatusCode == http.StatusNotFound && apiErr.Error == notFoundMessage {
			return ErrNotFound
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
