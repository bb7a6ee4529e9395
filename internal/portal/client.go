package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
)

const dispatchDetailPath = "/Portal/Dispatch/GetDispatchDetail"

// UpstreamError is a non-2xx, non-auth response from the portal.
type UpstreamError struct {
	Status      int
	BodyExcerpt string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("portal returned status %d: %s", e.Status, e.BodyExcerpt)
}

// Client issues authenticated reads against the portal using a session's
// cookie string.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, client *http.Client, log zerolog.Logger) *Client {
	if client == nil {
		client = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log}
}

type dispatchDetailRequest struct {
	CompanyLocationID string `json:"CompanyLocationID"`
	UserID            string `json:"UserID"`
}

// GetDispatchDetail POSTs the dispatch-detail query and returns the
// portal's JSON body verbatim. 401/403 map to errorz.ErrAuthExpired so the
// caller knows to re-run the login handshake; any other non-2xx becomes an
// UpstreamError carrying a body excerpt.
func (c *Client) GetDispatchDetail(ctx context.Context, cookieHeader, companyLocationID, userID string) (json.RawMessage, error) {
	payload, err := json.Marshal(dispatchDetailRequest{
		CompanyLocationID: companyLocationID,
		UserID:            userID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+dispatchDetailPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	// Browser-like headers; the portal rejects requests that do not look
	// like its own front end.
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", c.baseURL+dispatchListPath)
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Cookie", cookieHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Join(errorz.ErrPortalUnreachable, err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, errors.Join(errorz.ErrPortalUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errorz.ErrAuthExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Warn().Int("status", resp.StatusCode).Msg("dispatch detail request failed")
		return nil, &UpstreamError{Status: resp.StatusCode, BodyExcerpt: excerpt(body)}
	}

	return json.RawMessage(body), nil
}
