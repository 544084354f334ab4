package magemin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	minimizePath = "/v1/minimize"

	// DefaultTimeout bounds one bridge round trip. Minimizations over a
	// dense grid can run for minutes on the daemon side.
	DefaultTimeout = 5 * time.Minute
)

// Client talks to a MAGEMin bridge daemon over HTTP. The daemon owns the
// thermodynamic database and does the actual Gibbs minimization; the client
// only ships points and compositions across and decodes results.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bridge client for the daemon at addr, e.g.
// "http://localhost:8787". A zero timeout falls back to DefaultTimeout.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type pointParam struct {
	P float64 `json:"p"` // kbar
	T float64 `json:"t"` // °C
}

type minimizeRequest struct {
	Points []pointParam `json:"points"`
	Bulk   []float64    `json:"bulk"`
	Oxides []string     `json:"oxides"`
	SysIn  Basis        `json:"sys_in"`
}

type minimizeResponse struct {
	Results []*Result `json:"results"`
	Error   string    `json:"error,omitempty"`
}

// Minimize equilibrates one bulk composition at a single P-T point.
func (c *Client) Minimize(p, t float64, bulk []float64, oxides []string, basis Basis) (*Result, error) {
	results, err := c.MinimizeMany([]float64{p}, []float64{t}, bulk, oxides, basis)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// MinimizeMany equilibrates the same bulk composition at every (ps[i], ts[i])
// pair in one round trip. The returned slice is aligned with the input points.
func (c *Client) MinimizeMany(ps, ts []float64, bulk []float64, oxides []string, basis Basis) ([]*Result, error) {
	if len(ps) != len(ts) {
		return nil, fmt.Errorf("magemin: %d pressures for %d temperatures", len(ps), len(ts))
	}
	if err := basis.Validate(); err != nil {
		return nil, err
	}

	points := make([]pointParam, len(ps))
	for i := range ps {
		points[i] = pointParam{P: ps[i], T: ts[i]}
	}
	reqBody := minimizeRequest{
		Points: points,
		Bulk:   bulk,
		Oxides: oxides,
		SysIn:  basis,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+minimizePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge error %d: %s", resp.StatusCode, truncate(body))
	}

	var apiResp minimizeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("bridge rejected request: %s", apiResp.Error)
	}
	if len(apiResp.Results) != len(ps) {
		return nil, fmt.Errorf("bridge returned %d results for %d points", len(apiResp.Results), len(ps))
	}
	for i, r := range apiResp.Results {
		if r == nil {
			return nil, fmt.Errorf("bridge returned no result for point %d", i)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
	}
	return apiResp.Results, nil
}

func truncate(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
