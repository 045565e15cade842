package bookeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookeosync/internal/config"
	"bookeosync/internal/domain"
	"bookeosync/internal/utils"

	"github.com/cenkalti/backoff/v4"
)

const (
	// MaxDaysPerCall is the provider's documented ceiling for one
	// startTime/endTime range.
	MaxDaysPerCall = 31
	// MaxItemsPerPage is the provider's page size limit.
	MaxItemsPerPage = 100

	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 5
	maxResponseBytes  = 32 << 20
)

// Client talks to the provider's v2 API. Credentials go out as query
// parameters on every request.
type Client struct {
	BaseURL    string
	APIKey     string
	SecretKey  string
	HTTPClient *http.Client
	MaxRetries uint64
}

func NewClient(env config.Env) *Client {
	return &Client{
		BaseURL:    env.BookeoBaseURL,
		APIKey:     env.BookeoAPIKey,
		SecretKey:  env.BookeoSecretKey,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		MaxRetries: defaultMaxRetries,
	}
}

// FetchOptions selects the provider-side filters for a bookings query.
type FetchOptions struct {
	IncludeCanceled    bool
	ExpandCustomer     bool
	ExpandParticipants bool
	// ByLastChange filters on lastChangeTime instead of event startTime;
	// used by incremental sync.
	ByLastChange bool
}

// Range is one provider-compliant sub-range of a requested window.
type Range struct {
	Start time.Time
	End   time.Time
}

// SplitRange chunks [start, end) into consecutive sub-ranges of at most
// maxDays each. The union of the result equals the input and no two
// sub-ranges overlap.
func SplitRange(start, end time.Time, maxDays int) []Range {
	if maxDays <= 0 {
		maxDays = MaxDaysPerCall
	}
	var out []Range
	for cur := start; cur.Before(end); {
		chunkEnd := cur.Add(time.Duration(maxDays) * 24 * time.Hour)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		out = append(out, Range{Start: cur, End: chunkEnd})
		cur = chunkEnd
	}
	return out
}

// FetchRange streams every booking in [start, end) to fn, exactly once each.
// A failure in one sub-range aborts the whole run and names the range, so a
// re-run stays safe (the writer upserts by key).
func (c *Client) FetchRange(ctx context.Context, start, end time.Time, opt FetchOptions, fn func(Booking) error) error {
	for _, r := range SplitRange(start, end, MaxDaysPerCall) {
		utils.LogEvent("", "bookeo", "fetch_chunk",
			fmt.Sprintf("start=%s end=%s by_last_change=%t", utils.FormatBookeo(r.Start), utils.FormatBookeo(r.End), opt.ByLastChange))
		if err := c.fetchChunk(ctx, r, opt, fn); err != nil {
			return fmt.Errorf("bookings range %s to %s: %w",
				utils.FormatBookeo(r.Start), utils.FormatBookeo(r.End), err)
		}
	}
	return nil
}

func (c *Client) fetchChunk(ctx context.Context, r Range, opt FetchOptions, fn func(Booking) error) error {
	q := url.Values{}
	if opt.ByLastChange {
		q.Set("lastUpdatedStartTime", utils.FormatBookeo(r.Start))
		q.Set("lastUpdatedEndTime", utils.FormatBookeo(r.End))
	} else {
		q.Set("startTime", utils.FormatBookeo(r.Start))
		q.Set("endTime", utils.FormatBookeo(r.End))
	}
	q.Set("includeCanceled", strconv.FormatBool(opt.IncludeCanceled))
	q.Set("expandCustomer", strconv.FormatBool(opt.ExpandCustomer))
	q.Set("expandParticipants", strconv.FormatBool(opt.ExpandParticipants))
	q.Set("itemsPerPage", strconv.Itoa(MaxItemsPerPage))

	pageToken := ""
	pageNumber := 1
	for {
		if pageToken != "" {
			q.Set("pageNavigationToken", pageToken)
			q.Set("pageNumber", strconv.Itoa(pageNumber))
		}

		var page bookingsPage
		if err := c.do(ctx, http.MethodGet, "/bookings", q, nil, &page); err != nil {
			return err
		}

		for _, raw := range page.Data {
			var b Booking
			if err := json.Unmarshal(raw, &b); err != nil {
				// One bad element does not abort the range.
				utils.LogEvent("", "bookeo", "skip_malformed_item",
					domain.MalformedResponseError{Page: pageNumber, Err: err}.Error())
				continue
			}
			b.Raw = raw
			if err := fn(b); err != nil {
				return err
			}
		}

		if page.Info.PageNavigationToken == "" || len(page.Data) == 0 {
			break
		}
		if page.Info.TotalPages > 0 && page.Info.CurrentPage >= page.Info.TotalPages {
			break
		}
		// A short page means the range is exhausted.
		if len(page.Data) < MaxItemsPerPage {
			break
		}
		pageToken = page.Info.PageNavigationToken
		pageNumber++
	}
	return nil
}

// do issues one authenticated request with bounded exponential backoff on
// rate limits and transient failures. Auth failures and contract violations
// surface immediately.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	retries := c.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	return backoff.Retry(func() error {
		return c.doOnce(ctx, method, path, query, body, out)
	}, bo)
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("apiKey", c.APIKey)
	q.Set("secretKey", c.SecretKey)

	reqURL := c.BaseURL + path + "?" + q.Encode()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return backoff.Permanent(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return domain.TransientError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.TransientError{Op: "read " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(domain.AuthError{StatusCode: resp.StatusCode, Msg: apiMessage(data)})
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return domain.TransientError{
			Op:  method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(data)),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("bookeo api error: status %d: %s", resp.StatusCode, apiMessage(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(domain.MalformedResponseError{Err: err})
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func apiMessage(data []byte) string {
	var e apiError
	if err := json.Unmarshal(data, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	if len(data) > 200 {
		data = data[:200]
	}
	return string(data)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
