package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

// DefaultTimeout bounds every call except feed long-polls
const DefaultTimeout = 15 * time.Second

// ErrUnreachable means the request never got an HTTP answer
var ErrUnreachable = errors.New("server unreachable")

// APIError is a non-2xx answer
type APIError struct {
	Status  int
	Message string
	Field   string
	Code    string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// StaleSchema reports whether the server flagged its schema as behind
func (e *APIError) StaleSchema() bool {
	return e.Code == domain.ErrorClassStaleSchema.String()
}

// IsUnauthorized reports whether err means the session is gone
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
	Code    string          `json:"code"`
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	Token     string         `json:"token"`
	Session   domain.Session `json:"session"`
	User      services.Actor `json:"user"`
	FirstBind bool           `json:"first_bind"`
}

// Client talks to the console API with fiber's HTTP agent
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
}

// NewClient creates a client for the API rooted at baseURL (…/api/v1)
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		timeout:   DefaultTimeout,
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	a.UserAgent(c.userAgent)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	a.Timeout(timeout)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	status, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrUnreachable, errors.Join(errs...))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: status, Message: fmt.Sprintf("unexpected response (%d)", status)}
	}
	if status >= fiber.StatusBadRequest || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Status: status, Message: msg, Field: env.Field, Code: env.Code}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// Login opens a session bound to deviceID
func (c *Client) Login(ctx context.Context, phone, secret, deviceID string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, fiber.MethodPost, "/auth/login", "", fiber.Map{
		"phone": phone, "secret": secret, "device_id": deviceID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me confirms token still maps to a live session
func (c *Client) Me(ctx context.Context, token string) (*services.Actor, error) {
	var out services.Actor
	if err := c.do(ctx, fiber.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Heartbeat keeps the session alive
func (c *Client) Heartbeat(ctx context.Context, token string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/heartbeat", token, nil, nil)
}

// Logout ends the session
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/logout", token, nil, nil)
}

// Members lists one tab of the ledger
func (c *Client) Members(ctx context.Context, token string, tab domain.MemberTab, query string) (*services.MemberList, error) {
	q := url.Values{}
	q.Set("tab", string(tab))
	if query != "" {
		q.Set("q", query)
	}
	var out services.MemberList
	if err := c.do(ctx, fiber.MethodGet, "/members?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enroll creates a member
func (c *Client) Enroll(ctx context.Context, token string, form domain.MemberForm) (*services.MemberView, error) {
	var out services.MemberView
	if err := c.do(ctx, fiber.MethodPost, "/members", token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits a member
func (c *Client) Update(ctx context.Context, token, id string, form domain.MemberForm) (*services.MemberView, error) {
	var out services.MemberView
	if err := c.do(ctx, fiber.MethodPut, "/members/"+url.PathEscape(id), token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Message kinds accepted by Send
const (
	MessageWelcome  = "welcome"
	MessageExpiry   = "reminders/expiry"
	MessagePending  = "reminders/pending"
	MessageBirthday = "birthday-wish"
)

// Send asks the server to prepare a member message and returns its chat link
func (c *Client) Send(ctx context.Context, token, kind, memberID string) (*services.SendResult, error) {
	var out services.SendResult
	if err := c.do(ctx, fiber.MethodPost, "/members/"+url.PathEscape(memberID)+"/"+kind, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Renewals is the renewal worklist
func (c *Client) Renewals(ctx context.Context, token string) (*services.RenewalList, error) {
	var out services.RenewalList
	if err := c.do(ctx, fiber.MethodGet, "/alerts/renewals", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Birthdays is the birthday worklist
func (c *Client) Birthdays(ctx context.Context, token string) (*services.BirthdayList, error) {
	var out services.BirthdayList
	if err := c.do(ctx, fiber.MethodGet, "/alerts/birthdays", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard is the overview
func (c *Client) Dashboard(ctx context.Context, token string) (*services.DashboardData, error) {
	var out services.DashboardData
	if err := c.do(ctx, fiber.MethodGet, "/dashboard", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logs returns the latest entries split by day
func (c *Client) Logs(ctx context.Context, token string) (*services.DailyLogs, error) {
	var out services.DailyLogs
	if err := c.do(ctx, fiber.MethodGet, "/logs/daily", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions lists open sessions
func (c *Client) Sessions(ctx context.Context, token string) ([]domain.Session, error) {
	var out []domain.Session
	if err := c.do(ctx, fiber.MethodGet, "/sessions", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Feed long-polls for changes after since
func (c *Client) Feed(ctx context.Context, token string, since uint64, wait time.Duration) (realtime.Batch, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatUint(since, 10))
	q.Set("wait", strconv.Itoa(int(wait.Seconds())))

	ctx, cancel := context.WithTimeout(ctx, wait+DefaultTimeout)
	defer cancel()

	var out realtime.Batch
	err := c.do(ctx, fiber.MethodGet, "/feed?"+q.Encode(), token, nil, &out)
	return out, err
}
