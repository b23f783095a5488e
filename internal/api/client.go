package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bookingdesk/internal/metrics"
	"bookingdesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	endpointLogin    = "login"
	endpointRegister = "register"
	endpointSlots    = "slots"
	endpointBook     = "book"
	endpointCancel   = "cancel"

	maxErrorBody = 64 << 10
)

// Client calls the booking backend. It holds no session: callers pass the
// bearer token on every authenticated call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// NewClient constructs a client for baseURL. A zero timeout disables the per-request deadline.
func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseRateLimit throttles outbound requests client-side. rps <= 0 disables it.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Login exchanges credentials for a token and the user's identity.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{Email: email, Password: password}
	var resp models.LoginResponse
	if err := c.call(ctx, endpointLogin, http.MethodPost, "/auth/login", "", body, &resp, models.MsgLoginFailed); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Op: endpointLogin, Kind: KindDecode, Message: models.MsgLoginFailed}
	}
	return &resp, nil
}

// Register creates an account. The success body is backend-defined and returned raw.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.call(ctx, endpointRegister, http.MethodPost, "/auth/register", "", req, &resp, models.MsgSignupFailed); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListSlots returns the bookings the backend reports for date (YYYY-MM-DD).
func (c *Client) ListSlots(ctx context.Context, token, date string) ([]models.Booking, error) {
	path := "/bookings/slots?date=" + url.QueryEscape(date)
	var resp []models.Booking
	if err := c.call(ctx, endpointSlots, http.MethodGet, path, token, nil, &resp, models.MsgFetchFailed); err != nil {
		return nil, err
	}
	return resp, nil
}

// Book requests a booking of slot_time on booking_date for the token's owner.
func (c *Client) Book(ctx context.Context, token string, req models.BookRequest) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.call(ctx, endpointBook, http.MethodPost, "/bookings/book", token, req, &resp, models.MsgBookFailed); err != nil {
		return nil, err
	}
	return resp, nil
}

// Cancel deletes the booking with the given id.
func (c *Client) Cancel(ctx context.Context, token string, id models.ID) (json.RawMessage, error) {
	path := "/bookings/cancel/" + url.PathEscape(id.String())
	var resp json.RawMessage
	if err := c.call(ctx, endpointCancel, http.MethodDelete, path, token, nil, &resp, models.MsgCancelFailed); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) call(
	ctx context.Context,
	endpoint, method, path, token string,
	body, out any,
	fallback string,
) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveAPI(endpoint, started, err) }()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return &Error{Op: endpoint, Kind: KindTransport, Message: werr.Error(), Err: werr}
		}
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return &Error{Op: endpoint, Kind: KindTransport, Message: err.Error(), Err: err}
	}
	requestID := req.Header.Get("X-Request-ID")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Str("request_id", requestID).Msg("api request failed")
		return &Error{Op: endpoint, Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(started)).
		Msg("api request")

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Op:         endpoint,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    messageFromBody(data, fallback),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: endpoint, Kind: KindTransport, Message: err.Error(), Err: err}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: endpoint, Kind: KindDecode, Message: fallback, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	reader := io.Reader(http.NoBody)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
