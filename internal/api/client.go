// Package api is the client for the course backend REST API.
package api

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

	"github.com/verte-zerg/nihongo/internal/catalog"
	"github.com/verte-zerg/nihongo/internal/httpx"
	"github.com/verte-zerg/nihongo/internal/model"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 15 * time.Second

var (
	// ErrUnauthorized is returned when the backend rejects the access token.
	ErrUnauthorized = errors.New("backend rejected credentials")
	// ErrInvalidProfile is returned for a profile update missing required fields.
	ErrInvalidProfile = errors.New("invalid profile update")
)

// Client talks to the backend. It implements catalog.Source and
// quiz.Reporter.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a Client for baseURL. token may be empty.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: baseURL, token: token, http: httpx.NewClient(timeout)}, nil
}

// Units returns the learner's units with lesson statuses.
func (c *Client) Units(ctx context.Context, userID int) ([]model.Unit, error) {
	var units []model.Unit
	err := c.getJSON(ctx, "/api/units", url.Values{"userId": {strconv.Itoa(userID)}}, &units)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch units: %w", err)
	}
	return units, nil
}

// Challenges returns every challenge of a lesson, across types.
func (c *Client) Challenges(ctx context.Context, lessonID, userID int) ([]model.Challenge, error) {
	var out []model.Challenge
	for _, typ := range []model.ChallengeType{model.ChallengeMultipleChoice, model.ChallengeOrder, model.ChallengePairs} {
		var batch []model.Challenge
		query := url.Values{"userId": {strconv.Itoa(userID)}, "type": {string(typ)}}
		if err := c.getJSON(ctx, "/api/questions/"+strconv.Itoa(lessonID), query, &batch); err != nil {
			return nil, fmt.Errorf("failed to fetch %s questions: %w", typ, err)
		}
		for i := range batch {
			batch[i].LessonID = lessonID
			if batch[i].Type == "" {
				batch[i].Type = typ
			}
			if err := catalog.ValidateChallenge(batch[i]); err != nil {
				return nil, fmt.Errorf("question %d of lesson %d: %w", batch[i].ID, lessonID, err)
			}
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Profile returns the backend profile of userID.
func (c *Client) Profile(ctx context.Context, userID int) (model.Profile, error) {
	var p model.Profile
	if err := c.getJSON(ctx, "/api/user/info/"+strconv.Itoa(userID), nil, &p); err != nil {
		return model.Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return p, nil
}

// UpdateProfile saves the learner's name, phone number and password.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) error {
	if update.UserID <= 0 {
		return fmt.Errorf("%w: user id must be > 0", ErrInvalidProfile)
	}
	if strings.TrimSpace(update.Name) == "" || strings.TrimSpace(update.PhoneNumber) == "" {
		return fmt.Errorf("%w: name and phone number are required", ErrInvalidProfile)
	}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/api/user/update-info", nil, body)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// RightAnswer records a correct answer.
func (c *Client) RightAnswer(ctx context.Context, challenge model.Challenge, userID int) error {
	return c.answer(ctx, "/api/questions/right-answer", challenge, userID)
}

// WrongAnswer records a wrong answer.
func (c *Client) WrongAnswer(ctx context.Context, challenge model.Challenge, userID int) error {
	return c.answer(ctx, "/api/questions/wrong-answer", challenge, userID)
}

func (c *Client) answer(ctx context.Context, path string, challenge model.Challenge, userID int) error {
	query := url.Values{
		"userId":     {strconv.Itoa(userID)},
		"questionId": {strconv.Itoa(challenge.ID)},
		"type":       {string(challenge.Type)},
	}
	if err := c.post(ctx, path, query); err != nil {
		return fmt.Errorf("failed to record answer for question %d: %w", challenge.ID, err)
	}
	return nil
}

// CompleteLesson marks a lesson completed. The backend answers 400 for a
// lesson that is already completed; that is not an error.
func (c *Client) CompleteLesson(ctx context.Context, lessonID, userID int) error {
	query := url.Values{"userId": {strconv.Itoa(userID)}, "lessonId": {strconv.Itoa(lessonID)}}
	err := c.post(ctx, "/api/units/update-status", query)
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusBadRequest {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update lesson %d: %w", lessonID, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values) error {
	resp, err := c.do(ctx, http.MethodPost, path, query, nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := httpx.Do(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		var reqBody io.Reader = http.NoBody
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) && (statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden) {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return resp, err
}
