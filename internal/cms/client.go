package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/go-querystring/query"

	"github.com/pders01/trvl/internal/config"
	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/validation"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// searchQuery is the initial documents/search request.
type searchQuery struct {
	Ref         string `url:"ref"`
	Q           string `url:"q"`
	PageSize    int    `url:"pageSize"`
	AccessToken string `url:"access_token,omitempty"`
}

// Client issues the HTTP requests of a paginated post listing.
type Client struct {
	client       *http.Client
	validator    *validation.URLValidator
	endpoint     string
	documentType string
	pageSize     int
	accessToken  string
	previewRef   string
	userAgent    string

	mu        sync.Mutex
	masterRef string
}

func NewClient(cfg *config.Config) (*Client, error) {
	validator := validation.NewURLValidator()
	if cfg.CMS.AllowPrivateHosts {
		validator = validation.NewPermissiveURLValidator()
	}

	endpoint, err := validator.ValidateEndpoint(cfg.CMS.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid CMS endpoint: %w", err)
	}

	return &Client{
		client:       &http.Client{Timeout: cfg.CMS.HTTPTimeout},
		validator:    validator,
		endpoint:     endpoint,
		documentType: cfg.CMS.DocumentType,
		pageSize:     cfg.CMS.PageSize,
		accessToken:  cfg.CMS.AccessToken,
		previewRef:   cfg.CMS.PreviewRef,
		userAgent:    cfg.CMS.UserAgent,
	}, nil
}

// Preview reports whether initial queries use the configured preview ref.
func (c *Client) Preview() bool {
	return c.previewRef != ""
}

// RefLabel names the content version the initial query reads.
func (c *Client) RefLabel() string {
	if c.Preview() {
		return "preview:" + c.previewRef
	}
	return "master"
}

// FetchPage fetches one page. A zero cursor issues the initial query for the
// configured document type; otherwise the cursor URL is requested as-is.
func (c *Client) FetchPage(ctx context.Context, cursor Cursor) (*Page, error) {
	target, err := c.pageURL(ctx, cursor)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(target, body)
	if err != nil {
		return nil, err
	}

	debuglog.WithFields(map[string]interface{}{
		"url":     target,
		"results": len(page.Results),
		"next":    page.NextPage,
	}).Debugf("fetched page")

	return page, nil
}

func (c *Client) pageURL(ctx context.Context, cursor Cursor) (string, error) {
	if !cursor.IsZero() {
		if _, err := c.validator.Validate(cursor.String()); err != nil {
			return "", &FetchError{URL: cursor.String(), Err: fmt.Errorf("rejecting cursor: %w", err)}
		}
		return cursor.String(), nil
	}

	ref, err := c.ref(ctx)
	if err != nil {
		return "", err
	}

	values, err := query.Values(searchQuery{
		Ref:         ref,
		Q:           fmt.Sprintf(`[[at(document.type, "%s")]]`, c.documentType),
		PageSize:    c.pageSize,
		AccessToken: c.accessToken,
	})
	if err != nil {
		return "", fmt.Errorf("encoding search query: %w", err)
	}

	return c.endpoint + "/documents/search?" + values.Encode(), nil
}

// ref returns the preview ref when set, else the master ref resolved once from the API root.
func (c *Client) ref(ctx context.Context) (string, error) {
	if c.previewRef != "" {
		return c.previewRef, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.masterRef != "" {
		return c.masterRef, nil
	}

	target := c.endpoint
	if c.accessToken != "" {
		values, err := query.Values(struct {
			AccessToken string `url:"access_token"`
		}{c.accessToken})
		if err != nil {
			return "", fmt.Errorf("encoding api query: %w", err)
		}
		target += "?" + values.Encode()
	}

	body, err := c.get(ctx, target)
	if err != nil {
		return "", err
	}

	var root apiRoot
	if err := json.Unmarshal(body, &root); err != nil {
		return "", &MalformedResponseError{URL: target, Reason: "decoding api root", Err: err}
	}

	for _, r := range root.Refs {
		if r.IsMasterRef && r.Ref != "" {
			c.masterRef = r.Ref
			debuglog.Debugf("resolved master ref %s", r.Ref)
			return c.masterRef, nil
		}
	}

	return "", &MalformedResponseError{URL: target, Reason: "no master ref in api root"}
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	debuglog.Dump("response "+target, body)

	return body, nil
}

func decodePage(target string, body []byte) (*Page, error) {
	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{URL: target, Reason: "decoding page", Err: err}
	}

	if resp.Results == nil {
		return nil, &MalformedResponseError{URL: target, Reason: "missing results"}
	}

	page := &Page{
		Results:      *resp.Results,
		Number:       resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
	if resp.NextPage != nil {
		page.NextPage = Cursor(*resp.NextPage)
	}

	return page, nil
}
