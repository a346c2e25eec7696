package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/logger"
)

// HTTPClient talks JSON to the lab data endpoint. Requests are selected by
// the "special" query parameter.
type HTTPClient struct {
	baseURL *url.URL
	session *http.Client
	log     logger.Logger
}

// NewHTTPClient creates a client for dataURL. A nil session uses a default
// client without timeout; calls are bounded only by ctx.
func NewHTTPClient(dataURL string, session *http.Client, log logger.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(dataURL))
	if err != nil {
		return nil, fmt.Errorf("remote: parse data url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote: data url %q must be absolute", dataURL)
	}
	if session == nil {
		session = &http.Client{}
	}
	return &HTTPClient{baseURL: u, session: session, log: log}, nil
}

type labDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	KeyImageURL string  `json:"key_image_url"`
}

func (c *HTTPClient) FetchLabs(ctx context.Context, pos geo.Coordinate) ([]labs.Lab, error) {
	var dtos []labDTO
	q := url.Values{
		"special":   {"labs"},
		"latitude":  {strconv.FormatFloat(pos.Latitude, 'f', 7, 64)},
		"longitude": {strconv.FormatFloat(pos.Longitude, 'f', 7, 64)},
	}
	if err := c.getJSON(ctx, "fetch_labs", q, &dtos); err != nil {
		return nil, err
	}

	out := make([]labs.Lab, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, labs.Lab{
			ID:          d.ID,
			Title:       d.Title,
			Latitude:    d.Latitude,
			Longitude:   d.Longitude,
			KeyImageURL: d.KeyImageURL,
			Distance:    geo.HaversineMeters(pos.Latitude, pos.Longitude, d.Latitude, d.Longitude),
		})
	}
	return out, nil
}

func (c *HTTPClient) FetchDetail(ctx context.Context, id string) (Detail, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "fetch_detail", url.Values{"special": {"detail"}, "id": {id}}, &raw); err != nil {
		return Detail{}, err
	}

	var d Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		return Detail{}, &RemoteError{Op: "fetch_detail", Err: fmt.Errorf("decode: %w", err)}
	}
	if d.ID == "" {
		d.ID = id
	}
	d.Raw = raw
	return d, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, id, value string) (Result, error) {
	var res Result
	q := url.Values{"special": {"log"}, "id": {id}, "code": {value}}
	if err := c.getJSON(ctx, "submit_answer", q, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// SubmitReview keeps the data endpoint's historic parameter names: the rating
// travels as block_size and the text as code.
func (c *HTTPClient) SubmitReview(ctx context.Context, r Review) error {
	q := url.Values{
		"special":    {"ratings"},
		"id":         {r.AdventureID},
		"block_size": {strconv.Itoa(r.Rating)},
		"code":       {r.Text},
	}
	var ack json.RawMessage
	return c.getJSON(ctx, "submit_review", q, &ack)
}

func (c *HTTPClient) FetchUser(ctx context.Context) (User, error) {
	var u User
	if err := c.getJSON(ctx, "fetch_user", url.Values{}, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op string, q url.Values, dst any) error {
	u := *c.baseURL
	merged := u.Query()
	for k, vs := range q {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()

	reqID := uuid.NewString()
	ctx = logger.WithRequestID(logger.WithAction(ctx, op), reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &RemoteError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.session.Do(req)
	if err != nil {
		c.log.Error(ctx, "remote request failed", err)
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		rerr := &RemoteError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		c.log.Error(ctx, "remote request rejected", rerr)
		return rerr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &RemoteError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	c.log.Debug(ctx, "remote request done", "status", resp.StatusCode)
	return nil
}
