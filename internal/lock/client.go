package lock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OwnerToken is the opaque capability the coordinator hands out with a lease.
// It is only ever echoed back on release; the client never inspects or
// fabricates one.
type OwnerToken string

// Lease is the result of a successful acquire. It must be passed back to
// Release exactly once.
type Lease struct {
	Resource  string
	Owner     OwnerToken
	ExpiresAt int64 // coordinator clock, unix ms; for logging only
}

// DeniedError means the coordinator answered and refused the lease: someone
// else holds the resource right now.
type DeniedError struct {
	Resource string
	Reason   string
	Code     int
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("lock denied: resource=%s status=%d reason=%s", e.Resource, e.Code, e.Reason)
}

// UnreachableError means the coordinator could not be reached or did not
// answer in time. The booking outcome is the same as a denial, but the
// distinction is kept for the response detail.
type UnreachableError struct {
	Resource string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("lock coordinator unreachable: resource=%s: %v", e.Resource, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Client talks to the remote lock coordinator. One Acquire attempt maps to
// one coordinator request; there are no hidden retries, so a failed attempt
// yields exactly one rejected booking.
type Client struct {
	baseURL        string
	http           *http.Client
	acquireTimeout time.Duration
	releaseTimeout time.Duration
}

// New creates a coordinator client. Timeouts of zero fall back to the
// defaults the original deployment used (3s acquire, 2s release).
func New(baseURL string, hc *http.Client, acquireTimeout, releaseTimeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if hc == nil {
		hc = &http.Client{}
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 3 * time.Second
	}
	if releaseTimeout <= 0 {
		releaseTimeout = 2 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		http:           hc,
		acquireTimeout: acquireTimeout,
		releaseTimeout: releaseTimeout,
	}
}

// ---- Wire format (matches the coordinator's HTTP API) ----

type lockReq struct {
	Resource string `json:"resource"`
	TTLMS    int64  `json:"ttl_ms"`
}

type lockResp struct {
	Owner     string `json:"owner,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

type unlockReq struct {
	Resource string `json:"resource"`
	Owner    string `json:"owner"`
}

// Acquire requests a lease on resource with the given TTL. On success the
// returned Lease carries the opaque owner token needed to release it. A
// non-200 answer comes back as *DeniedError, a transport failure as
// *UnreachableError; callers that only care about the outcome can treat both
// as "could not acquire".
func (c *Client) Acquire(ctx context.Context, resource string, ttl time.Duration) (Lease, error) {
	if resource == "" {
		return Lease{}, fmt.Errorf("resource is required")
	}
	if ttl <= 0 {
		return Lease{}, fmt.Errorf("ttl must be > 0")
	}

	ctx, cancel := context.WithTimeout(ctx, c.acquireTimeout)
	defer cancel()

	var out lockResp
	code, raw, err := c.doJSON(ctx, c.baseURL+"/lock", lockReq{Resource: resource, TTLMS: ttl.Milliseconds()}, &out)
	if err != nil {
		return Lease{}, &UnreachableError{Resource: resource, Err: err}
	}

	if code == http.StatusOK && out.Owner != "" {
		return Lease{
			Resource:  resource,
			Owner:     OwnerToken(out.Owner),
			ExpiresAt: out.ExpiresAt,
		}, nil
	}

	reason := out.Error
	if reason == "" {
		reason = raw
	}
	return Lease{}, &DeniedError{Resource: resource, Reason: reason, Code: code}
}

// Release gives the lease back. It is best-effort: an error here is for
// logging only, the coordinator evicts the lease on TTL expiry regardless.
func (c *Client) Release(ctx context.Context, lease Lease) error {
	ctx, cancel := context.WithTimeout(ctx, c.releaseTimeout)
	defer cancel()

	code, raw, err := c.doJSON(ctx, c.baseURL+"/unlock", unlockReq{Resource: lease.Resource, Owner: string(lease.Owner)}, nil)
	if err != nil {
		return fmt.Errorf("unlock %s: %w", lease.Resource, err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("unlock %s: status=%d body=%q", lease.Resource, code, raw)
	}
	return nil
}

// ListLocks fetches the coordinator's live lease table, verbatim. Used by
// the authenticated admin endpoint only.
func (c *Client) ListLocks(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.acquireTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/locks", nil)
	if err != nil {
		return nil, err
	}
	rsp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnreachableError{Resource: "*", Err: err}
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list locks: status=%d body=%q", rsp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.RawMessage(body), nil
}

// doJSON sends JSON and optionally decodes a JSON response.
// Returns status code and raw body (trimmed) for diagnostics.
func (c *Client) doJSON(ctx context.Context, url string, reqBody any, respBody any) (int, string, error) {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return 0, "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	rsp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, "", err
	}
	defer rsp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	raw := strings.TrimSpace(string(body))

	if respBody != nil && len(body) > 0 {
		_ = json.Unmarshal(body, respBody) // tolerate non-JSON error bodies
	}
	return rsp.StatusCode, raw, nil
}
