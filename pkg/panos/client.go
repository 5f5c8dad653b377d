package panos

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRequestTimeout bounds a single HTTPS round trip to a device.
	DefaultRequestTimeout = 60 * time.Second

	apiPath = "/api/"
)

// Client speaks the device's XML API for one session. All operations are
// HTTP GETs against a single endpoint, differentiated by the `type` query
// parameter, with the API key passed as the vendor's `key` query parameter.
//
// TLS certificate validation is intentionally disabled: during initial
// bring-up the devices only present self-signed certificates, and the
// pipeline's trust model is the lab network, not a CA.
type Client struct {
	session    DeviceSession
	httpClient *http.Client
}

// NewClient builds a client for one device session with the default
// insecure transport and request timeout.
func NewClient(session DeviceSession) *Client {
	return NewClientWithHTTP(session, nil)
}

// NewClientWithHTTP builds a client with a caller-supplied http.Client,
// used by tests and by callers that need a different request timeout.
func NewClientWithHTTP(session DeviceSession, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultRequestTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return &Client{session: session, httpClient: httpClient}
}

// Host returns the device host this client is bound to.
func (c *Client) Host() string { return c.session.Host }

// Session returns the immutable session bundle.
func (c *Client) Session() DeviceSession { return c.session }

// call performs one GET against the device API endpoint and returns the raw
// body. Non-200 statuses come back as *ConfigError so callers always have
// the status and body available for diagnosis.
func (c *Client) call(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.session.Validate(); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("https://%s%s", c.session.Host, apiPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", c.session.Host)
	}
	req.URL.RawQuery = params.Encode()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", c.session.Host)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read response from %s", c.session.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ConfigError{Host: c.session.Host, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) keyedParams(typ string) url.Values {
	params := url.Values{}
	params.Set("type", typ)
	if c.session.APIKey != "" {
		params.Set("key", c.session.APIKey)
	}
	return params
}

// GenerateAPIKey performs the keygen login with the session's username and
// password and returns the opaque API key used by every other operation.
// The session itself is not mutated.
func (c *Client) GenerateAPIKey(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("type", "keygen")
	params.Set("user", c.session.Username)
	params.Set("password", c.session.Password)
	body, err := c.call(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "generate API key for %s", c.session.Host)
	}
	var resp keygenResponse
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return "", err
	}
	if resp.Result.Key == "" {
		return "", errors.Errorf("keygen response from %s contained no key", c.session.Host)
	}
	log.Info().Str("host", c.session.Host).Msg("API key generated")
	return resp.Result.Key, nil
}

// Commit issues one asynchronous commit request and returns the job
// identifier the device assigned to it. An empty description commits with
// the device's default log entry.
func (c *Client) Commit(ctx context.Context, description string) (string, error) {
	cmd := "<commit></commit>"
	if description != "" {
		cmd = fmt.Sprintf("<commit><description>%s</description></commit>", description)
	}
	params := c.keyedParams("commit")
	params.Set("cmd", cmd)
	body, err := c.call(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "start commit on %s", c.session.Host)
	}
	var resp commitResponse
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return "", err
	}
	return resp.Result.Job, nil
}

// JobStatus queries the asynchronous job API for one job owned by this
// device. Job identifiers are only unique per device, so the caller must
// never address another device's job through this client.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	params := c.keyedParams("op")
	params.Set("cmd", fmt.Sprintf("<show><jobs><id>%s</id></jobs></show>", jobID))
	body, err := c.call(ctx, params)
	if err != nil {
		return JobStatus{}, errors.Wrapf(err, "query job %s on %s", jobID, c.session.Host)
	}
	var resp jobResponse
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return JobStatus{}, err
	}
	job := resp.Result.Job
	if job.Status == "" {
		return JobStatus{}, errors.Errorf("job response from %s carried no job info for id %s", c.session.Host, jobID)
	}
	return JobStatus{
		ID:       job.ID,
		Status:   job.Status,
		Progress: parseProgress(job.Progress),
		Result:   job.Result,
		Raw:      string(body),
	}, nil
}

// HAInfo reads the device's high-availability status: node role and the
// running-config sync field.
func (c *Client) HAInfo(ctx context.Context) (HAInfo, error) {
	params := c.keyedParams("op")
	params.Set("cmd", "<show><high-availability><state></state></high-availability></show>")
	body, err := c.call(ctx, params)
	if err != nil {
		return HAInfo{}, errors.Wrapf(err, "query HA state on %s", c.session.Host)
	}
	var resp haInfoResponse
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return HAInfo{}, err
	}
	return HAInfo{
		Enabled:     resp.Result.Enabled == "yes",
		State:       resp.Result.Group.LocalState,
		PeerState:   resp.Result.Group.PeerState,
		RunningSync: parseSyncState(resp.Result.Group.RunningSync),
		RawSync:     resp.Result.Group.RunningSync,
		Raw:         string(body),
	}, nil
}

// SyncToPeer asks the device to replicate its running configuration to the
// HA peer. The operation is asynchronous and best-effort; progress is
// observed through HAInfo, there is no job id and no cancel.
func (c *Client) SyncToPeer(ctx context.Context) error {
	params := c.keyedParams("op")
	params.Set("cmd", "<request><high-availability><sync-to-remote><running-config></running-config></sync-to-remote></high-availability></request>")
	body, err := c.call(ctx, params)
	if err != nil {
		return errors.Wrapf(err, "trigger HA sync on %s", c.session.Host)
	}
	var resp struct{ apiEnvelope }
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return err
	}
	log.Info().Str("host", c.session.Host).Msg("HA running-config sync initiated")
	return nil
}
