package remote

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

	"islandstay/internal/config"
	"islandstay/internal/metrics"
	"islandstay/internal/models"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const maxBodySize = 8 << 20

// Client talks to the hosted backend: PostgREST tables and procedures under
// /rest/v1 and the auth API under /auth/v1. It keeps no per-user state;
// credentials are supplied with every call.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zerolog.Logger
}

func NewClient(cfg config.RemoteConfig, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker("remote", cfg.Breaker, logger)
	}
	return c
}

func newBreaker(name string, cfg config.BreakerConfig, logger *zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
			// A remote that answers with 4xx is healthy, it just said no.
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var re *Error
				return errors.As(err, &re) && re.Status > 0 && re.Status < 500
			},
		},
	)
}

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	headers http.Header
	body    any
	creds   models.Credentials
}

func (c *Client) do(ctx context.Context, cl call) (*Response, error) {
	start := time.Now()

	var (
		resp *Response
		err  error
	)
	if c.breaker != nil {
		var out interface{}
		out, err = c.breaker.Execute(func() (interface{}, error) {
			return c.roundTrip(ctx, cl)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &Error{Kind: KindUnavailable, Op: cl.op, Err: err}
		}
		if r, ok := out.(*Response); ok {
			resp = r
		}
	} else {
		resp, err = c.roundTrip(ctx, cl)
	}

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.ObserveRemoteCall(cl.op, outcome, time.Since(start))

	if err != nil {
		c.logger.Debug().Err(err).Str("op", cl.op).Dur("duration", time.Since(start)).Msg("remote call failed")
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) (*Response, error) {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: cl.op, Message: "encode request body", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: cl.op, Err: err}
	}
	c.addHeaders(req, cl)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: cl.op, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: cl.op, Status: httpResp.StatusCode, Err: err}
	}

	if httpResp.StatusCode >= 300 {
		return nil, parseError(cl.op, httpResp.StatusCode, data)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Data:   json.RawMessage(data),
		Count:  parseCount(httpResp.Header.Get("Content-Range")),
	}, nil
}

func (c *Client) addHeaders(req *http.Request, cl call) {
	req.Header.Set("apikey", c.anonKey)
	token := c.anonKey
	if !cl.creds.Anonymous() {
		token = cl.creds.AccessToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range cl.headers {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}
}

type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorCode        string          `json:"error_code"`
	ErrorDescription string          `json:"error_description"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
}

func parseError(op string, status int, data []byte) *Error {
	e := &Error{Kind: KindRemote, Op: op, Status: status}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		e.Code = strings.Trim(string(body.Code), `"`)
		if e.Code == "" {
			e.Code = body.ErrorCode
		}
		if e.Code == "" {
			e.Code = body.Error
		}
		for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
			if m != "" {
				e.Message = m
				break
			}
		}
	} else {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindUnauthorized
	case e.Code == "invalid_grant" || e.Code == "PGRST301":
		e.Kind = KindUnauthorized
	case e.Code == "PGRST116":
		e.Kind = KindNotFound
	}
	return e
}

// parseCount reads the total from a "0-24/3573" Content-Range header.
func parseCount(header string) int64 {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0
	}
	n, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// RPC invokes a named stored procedure with a parameter mapping.
func (c *Client) RPC(ctx context.Context, creds models.Credentials, fn string, params any) (*Response, error) {
	if params == nil {
		params = map[string]any{}
	}
	return c.do(ctx, call{
		op:     "rpc." + fn,
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + url.PathEscape(fn),
		body:   params,
		creds:  creds,
	})
}

// Ping checks that the remote answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, call{
		op:     "auth.health",
		method: http.MethodGet,
		path:   "/auth/v1/health",
	})
	if err != nil {
		return fmt.Errorf("failed to ping remote: %w", err)
	}
	return nil
}
