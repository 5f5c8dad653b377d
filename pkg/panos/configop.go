package panos

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SetConfig stages an XML fragment at the given xpath in the device's
// candidate configuration. With overwrite the target node is replaced
// (action=edit); otherwise the fragment is merged into it (action=set).
// Nothing becomes active until a commit succeeds.
//
// There are no retries at this layer; callers decide whether a failed path
// aborts their step or is logged and skipped.
func (c *Client) SetConfig(ctx context.Context, xpath, element string, overwrite bool) error {
	action := "set"
	if overwrite {
		action = "edit"
	}
	params := c.keyedParams("config")
	params.Set("action", action)
	params.Set("xpath", xpath)
	params.Set("element", element)
	body, err := c.call(ctx, params)
	if err != nil {
		return errors.Wrapf(err, "%s config at %s on %s", action, xpath, c.session.Host)
	}
	var resp struct{ apiEnvelope }
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return err
	}
	log.Debug().Str("host", c.session.Host).Str("xpath", xpath).Str("action", action).Msg("candidate config staged")
	return nil
}

// GetConfig reads the configuration subtree at xpath and returns the inner
// XML of the result node. An empty return with nil error means the node
// exists but is empty or absent; callers inspecting presence should use
// ConfigNodeExists.
func (c *Client) GetConfig(ctx context.Context, xpath string) (string, error) {
	params := c.keyedParams("config")
	params.Set("action", "get")
	params.Set("xpath", xpath)
	body, err := c.call(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "get config at %s on %s", xpath, c.session.Host)
	}
	var resp configGetResponse
	if err := decodeEnvelope(c.session.Host, body, &resp, &resp.apiEnvelope); err != nil {
		return "", err
	}
	return resp.Result.Inner, nil
}

// ConfigNodeExists reports whether the subtree at xpath contains the named
// child element. Used by discovery to decide skip-vs-apply before staging
// config.
func (c *Client) ConfigNodeExists(ctx context.Context, xpath, element string) (bool, error) {
	inner, err := c.GetConfig(ctx, xpath)
	if err != nil {
		return false, err
	}
	return strings.Contains(inner, "<"+element), nil
}
