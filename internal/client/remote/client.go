// Package remote implements the HTTP client for the snippet persistence
// service: list/paginate, get-by-id, signed URLs, raw content, save,
// delete, and direct blob upload.
package remote

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

	"github.com/dkotlyar/snipstash/internal/common"
	"github.com/dkotlyar/snipstash/internal/models"
)

// Page is one page of the remote snippet list.
type Page struct {
	Snippets   []models.Snippet
	TotalCount int
	HasMore    bool
}

type pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	HasMore    bool `json:"hasMore"`
	TotalPages int  `json:"totalPages"`
}

type listResponse struct {
	Snippets   []models.Snippet `json:"snippets"`
	Pagination pagination       `json:"pagination"`
}

type saveResponse struct {
	Success bool            `json:"success"`
	Snippet *models.Snippet `json:"snippet"`
	Error   string          `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the persistence service over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListPage fetches one page of snippets. In lightweight mode the server
// omits inline content for file-type rows to limit payload size.
func (c *Client) ListPage(ctx context.Context, page, limit int, lightweight bool) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if lightweight {
		q.Set("lightweight", "true")
	}

	var resp listResponse
	if err := c.get(ctx, "/snippets?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &Page{
		Snippets:   resp.Snippets,
		TotalCount: resp.Pagination.TotalCount,
		HasMore:    resp.Pagination.HasMore,
	}, nil
}

// ListAll walks every page in lightweight mode and returns the combined
// list, newest first. This is what the poller reconciles against.
func (c *Client) ListAll(ctx context.Context) ([]models.Snippet, error) {
	const pageSize = 50

	var all []models.Snippet
	for page := 1; ; page++ {
		p, err := c.ListPage(ctx, page, pageSize, true)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Snippets...)
		if !p.HasMore {
			return all, nil
		}
	}
}

func (c *Client) GetByID(ctx context.Context, id int64) (*models.Snippet, error) {
	var s models.Snippet
	if err := c.get(ctx, fmt.Sprintf("/snippets?id=%d", id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSignedURL resolves a short-lived download URL for blob-stored
// content. The URL expires on the order of an hour and must be
// re-requested each session, never persisted.
func (c *Client) GetSignedURL(ctx context.Context, id int64) (string, error) {
	var s models.Snippet
	if err := c.get(ctx, fmt.Sprintf("/snippets?id=%d&getUrl=true", id), &s); err != nil {
		return "", err
	}
	if s.FileURL == "" {
		return "", fmt.Errorf("no file url for snippet %d: %w", id, common.ErrNotFound)
	}
	return s.FileURL, nil
}

// GetRawContent fetches the stored bytes of a snippet without going
// through the signed-URL flow. Used for encrypted blobs, whose
// ciphertext must be decrypted client-side before use.
func (c *Client) GetRawContent(ctx context.Context, id int64) (string, error) {
	var resp struct {
		Content string `json:"content"`
	}
	if err := c.get(ctx, fmt.Sprintf("/snippets?id=%d&getContent=true", id), &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// UploadTarget is a presigned destination for a direct blob upload.
type UploadTarget struct {
	StoragePath string `json:"storagePath"`
	UploadURL   string `json:"uploadUrl"`
}

// GetUploadURL asks the server to presign a PUT destination for the
// given snippet's file, bypassing the API's payload-size ceiling.
func (c *Client) GetUploadURL(ctx context.Context, id int64, fileName string) (*UploadTarget, error) {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	q.Set("putUrl", "true")
	q.Set("fileName", fileName)

	var target UploadTarget
	if err := c.get(ctx, "/snippets?"+q.Encode(), &target); err != nil {
		return nil, err
	}
	return &target, nil
}

// UploadBlobDirect PUTs raw bytes to a presigned destination. Only used
// for non-encrypted file uploads; encrypted payloads route through Save
// because their ciphertext is produced server-side.
func (c *Client) UploadBlobDirect(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ServerError{Status: resp.StatusCode, Message: string(body)}
	}
	return nil
}

// FetchURL downloads raw bytes from an absolute URL, typically a signed
// blob-store URL returned by GetSignedURL.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ServerError{Status: resp.StatusCode, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}

// Save upserts a snippet by id. The server is the source of truth for
// the stored shape (it assigns storagePath after moving file payloads to
// the blob store), so callers must adopt the returned snippet.
func (c *Client) Save(ctx context.Context, s *models.Snippet) (*models.Snippet, error) {
	body, err := json.Marshal(map[string]any{"snippet": s})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snippets", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp saveResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Snippet == nil {
		return nil, &ServerError{Status: http.StatusInternalServerError, Message: resp.Error}
	}
	return resp.Snippet, nil
}

// SaveAll replaces the remote dataset with the given full state. This
// is the coalesced-flush path for text edits; file payloads go through
// Save instead so the server can report the stored shape back.
func (c *Client) SaveAll(ctx context.Context, snippets []models.Snippet) error {
	body, err := json.Marshal(map[string]any{"snippets": snippets})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snippets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp saveResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &ServerError{Status: http.StatusInternalServerError, Message: resp.Error}
	}
	return nil
}

// Remove deletes the row and any associated blob.
func (c *Client) Remove(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/snippets?id=%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", req.URL.Path, common.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
