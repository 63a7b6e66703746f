package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

const (
	contentPath   = "/rest/api/content"
	maxErrorBody  = 512
	userAgent     = "go-md2confluence"
	atlassianXSRF = "X-Atlassian-Token"
)

// Config captures the knobs of a Client.
type Config struct {
	BaseURL    string
	Credential Credential
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	Retry   RetryConfig
	Logger  interfaces.Logger
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the Confluence REST API.
type Client struct {
	baseURL    string
	credential Credential
	http       *http.Client
	retry      RetryConfig
	logger     interfaces.Logger
}

var _ interfaces.ConfluenceClient = (*Client)(nil)

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if cfg.Credential == nil {
		return nil, ErrCredentialRequired
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    base,
		credential: cfg.Credential,
		http:       httpClient,
		retry:      cfg.Retry.normalized(),
		logger:     logging.OrNoOp(cfg.Logger),
	}, nil
}

// BaseURL returns the normalised service root.
func (c *Client) BaseURL() string { return c.baseURL }

type versionPayload struct {
	Number int `json:"number"`
}

type contentPayload struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Version *versionPayload `json:"version,omitempty"`
	Space   *struct {
		Key string `json:"key"`
	} `json:"space,omitempty"`
}

type searchPayload struct {
	Results []contentPayload `json:"results"`
}

func (p contentPayload) page(spaceKey string) *interfaces.Page {
	page := &interfaces.Page{ID: p.ID, Title: p.Title, SpaceKey: spaceKey}
	if p.Version != nil {
		page.Version = p.Version.Number
	}
	if p.Space != nil && p.Space.Key != "" {
		page.SpaceKey = p.Space.Key
	}
	return page
}

// FindPageByTitle returns the first page with the exact title in the space,
// or nil when none exists.
func (c *Client) FindPageByTitle(ctx context.Context, spaceKey, title string) (*interfaces.Page, error) {
	query := url.Values{}
	query.Set("type", "page")
	query.Set("spaceKey", spaceKey)
	query.Set("title", title)
	query.Set("expand", "version")

	var out searchPayload
	if err := c.get(ctx, contentPath, query, &out); err != nil {
		return nil, wrapError("page lookup", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return out.Results[0].page(spaceKey), nil
}

// GetPage fetches a page with its current version.
func (c *Client) GetPage(ctx context.Context, pageID string) (*interfaces.Page, error) {
	query := url.Values{}
	query.Set("expand", "version,space")

	var out contentPayload
	if err := c.get(ctx, contentPath+"/"+url.PathEscape(pageID), query, &out); err != nil {
		return nil, wrapError("page fetch", err)
	}
	return out.page(""), nil
}

type storagePayload struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type writePayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Body struct {
		Storage storagePayload `json:"storage"`
	} `json:"body"`
	Ancestors []struct {
		ID string `json:"id"`
	} `json:"ancestors,omitempty"`
	Version *versionPayload `json:"version,omitempty"`
}

func newWritePayload(input interfaces.PageInput) writePayload {
	var payload writePayload
	payload.Type = "page"
	payload.Title = input.Title
	payload.Space.Key = input.SpaceKey
	payload.Body.Storage = storagePayload{
		Value:          input.Body,
		Representation: string(representationOrDefault(input.Representation)),
	}
	return payload
}

// CreatePage creates a page, under ParentID when one is given.
func (c *Client) CreatePage(ctx context.Context, input interfaces.PageInput) (*interfaces.Page, error) {
	payload := newWritePayload(input)
	if input.ParentID != "" {
		payload.Ancestors = append(payload.Ancestors, struct {
			ID string `json:"id"`
		}{ID: input.ParentID})
	}

	var out contentPayload
	if err := c.sendJSON(ctx, http.MethodPost, contentPath, payload, &out); err != nil {
		return nil, wrapError("page create", err)
	}
	page := out.page(input.SpaceKey)
	page.ParentID = input.ParentID
	if page.Version == 0 {
		page.Version = 1
	}
	return page, nil
}

// UpdatePage replaces the body of a page. version is the new version number;
// ancestors are never sent.
func (c *Client) UpdatePage(ctx context.Context, pageID string, input interfaces.PageInput, version int) (*interfaces.Page, error) {
	payload := newWritePayload(input)
	payload.Version = &versionPayload{Number: version}

	var out contentPayload
	if err := c.sendJSON(ctx, http.MethodPut, contentPath+"/"+url.PathEscape(pageID), payload, &out); err != nil {
		return nil, wrapError("page update", err)
	}
	page := out.page(input.SpaceKey)
	if page.ID == "" {
		page.ID = pageID
	}
	if page.Version == 0 {
		page.Version = version
	}
	return page, nil
}

type labelPayload struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// AddLabels attaches global labels to a page in a single request.
func (c *Client) AddLabels(ctx context.Context, pageID string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	payload := make([]labelPayload, 0, len(labels))
	for _, label := range labels {
		payload = append(payload, labelPayload{Prefix: "global", Name: label})
	}
	err := c.sendJSON(ctx, http.MethodPost, contentPath+"/"+url.PathEscape(pageID)+"/label", payload, nil)
	return wrapError("label", err)
}

type attachmentPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type attachmentsPayload struct {
	Results []attachmentPayload `json:"results"`
}

func attachmentsFrom(payload attachmentsPayload) []interfaces.Attachment {
	out := make([]interfaces.Attachment, 0, len(payload.Results))
	for _, item := range payload.Results {
		out = append(out, interfaces.Attachment{ID: item.ID, Title: item.Title})
	}
	return out
}

// ListAttachments returns the attachments of a page.
func (c *Client) ListAttachments(ctx context.Context, pageID string) ([]interfaces.Attachment, error) {
	var out attachmentsPayload
	if err := c.get(ctx, attachmentPath(pageID), nil, &out); err != nil {
		return nil, wrapError("attachment list", err)
	}
	return attachmentsFrom(out), nil
}

// UploadAttachment uploads content as a minor edit of the page.
func (c *Client) UploadAttachment(ctx context.Context, pageID, filename string, content io.Reader) (*interfaces.Attachment, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentTypeFor(filename))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, wrapError("attachment upload", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, wrapError("attachment upload", err)
	}
	if err := writer.WriteField("minorEdit", "true"); err != nil {
		return nil, wrapError("attachment upload", err)
	}
	if err := writer.Close(); err != nil {
		return nil, wrapError("attachment upload", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, attachmentPath(pageID), nil, body)
	if err != nil {
		return nil, wrapError("attachment upload", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(atlassianXSRF, "no-check")

	var out attachmentsPayload
	if err := c.do(req, &out); err != nil {
		return nil, wrapError("attachment upload", err)
	}
	attachments := attachmentsFrom(out)
	if len(attachments) == 0 {
		return &interfaces.Attachment{Title: filename}, nil
	}
	return &attachments[0], nil
}

func attachmentPath(pageID string) string {
	return contentPath + "/" + url.PathEscape(pageID) + "/child/attachment"
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func representationOrDefault(rep interfaces.Representation) interfaces.Representation {
	if rep == "" {
		return interfaces.RepresentationWiki
	}
	return rep
}

func (c *Client) get(ctx context.Context, p string, query url.Values, out any) error {
	return c.withRetry(ctx, "GET "+p, func() error {
		req, err := c.newRequest(ctx, http.MethodGet, p, query, nil)
		if err != nil {
			return err
		}
		return c.do(req, out)
	})
}

func (c *Client) sendJSON(ctx context.Context, method, p string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, method, p, nil, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, p string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + p
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	c.credential.Apply(req)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("confluence.request.failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("confluence.request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, req.Method, req.URL.Path, err)
	}
	return nil
}
