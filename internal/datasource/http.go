package datasource

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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

// HTTPConfig configures an HTTP source
type HTTPConfig struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// HTTP is a data source backed by a REST endpoint of the shape served by
// internal/api: GET/POST /{entity}, GET/PATCH/DELETE /{entity}/{key}.
type HTTP struct {
	baseURL string
	entity  string
	client  *http.Client
}

// NewHTTPClient builds the shared client. Retries are off unless asked for,
// and the final response is always handed back so status codes surface as
// *HTTPError.
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryClient.HTTPClient = &http.Client{Timeout: timeout}
	return retryClient.StandardClient()
}

// NewHTTP creates a source for one entity
func NewHTTP(client *http.Client, baseURL, entity string) *HTTP {
	return &HTTP{baseURL: baseURL, entity: entity, client: client}
}

// EncodePageQuery renders a page request as query parameters
func EncodePageQuery(req query.PageRequest) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(req.Page, 1)))
	if req.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(req.PageSize))
	}
	if !req.Filters.Empty() {
		v.Set("filters", req.Filters.String())
	}
	if req.Sort != nil {
		b, _ := json.Marshal(req.Sort)
		v.Set("sort", string(b))
	}
	if req.SearchText != "" {
		v.Set("searchtext", req.SearchText)
	}
	return v
}

// DecodePageQuery is the inverse of EncodePageQuery. Missing values fall back
// to page 1, no size limit, no filters and no sort.
func DecodePageQuery(v url.Values) (query.PageRequest, error) {
	req := query.PageRequest{Page: 1, SearchText: v.Get("searchtext")}
	if s := v.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return req, fmt.Errorf("invalid page %q", s)
		}
		req.Page = page
	}
	if s := v.Get("pageSize"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size < 0 {
			return req, fmt.Errorf("invalid pageSize %q", s)
		}
		req.PageSize = size
	}
	if s := v.Get("filters"); s != "" {
		tree := filter.NewTree()
		if err := json.Unmarshal([]byte(s), tree); err != nil {
			return req, fmt.Errorf("invalid filters: %w", err)
		}
		req.Filters = tree
	}
	if s := v.Get("sort"); s != "" {
		var sort models.Sort
		if err := json.Unmarshal([]byte(s), &sort); err != nil {
			return req, fmt.Errorf("invalid sort: %w", err)
		}
		if sort.FieldName != "" {
			if !sort.Direction.Valid() {
				return req, fmt.Errorf("invalid sort direction %q", sort.Direction)
			}
			req.Sort = &sort
		}
	}
	return req, nil
}

func (h *HTTP) endpoint(key models.Key) (string, error) {
	if key == "" {
		return url.JoinPath(h.baseURL, h.entity)
	}
	return url.JoinPath(h.baseURL, h.entity, string(key))
}

func (h *HTTP) do(ctx context.Context, method, uri string, body, response any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if response == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (h *HTTP) FetchPage(ctx context.Context, req query.PageRequest) (models.FetchResult, error) {
	uri, err := h.endpoint("")
	if err != nil {
		return models.FetchResult{}, err
	}
	uri += "?" + EncodePageQuery(req).Encode()

	var result models.FetchResult
	if err := h.do(ctx, http.MethodGet, uri, nil, &result); err != nil {
		return models.FetchResult{}, err
	}
	return result, nil
}

func (h *HTTP) FetchItem(ctx context.Context, key models.Key) (models.Item, error) {
	uri, err := h.endpoint(key)
	if err != nil {
		return nil, err
	}
	var item models.Item
	if err := h.do(ctx, http.MethodGet, uri, nil, &item); err != nil {
		return nil, err
	}
	return item, nil
}

func (h *HTTP) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	uri, err := h.endpoint("")
	if err != nil {
		return nil, err
	}
	var created models.Item
	if err := h.do(ctx, http.MethodPost, uri, item, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (h *HTTP) UpdateItem(ctx context.Context, key models.Key, item models.Item) (models.Item, error) {
	uri, err := h.endpoint(key)
	if err != nil {
		return nil, err
	}
	var updated models.Item
	if err := h.do(ctx, http.MethodPatch, uri, item, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (h *HTTP) DeleteItem(ctx context.Context, key models.Key) error {
	uri, err := h.endpoint(key)
	if err != nil {
		return err
	}
	return h.do(ctx, http.MethodDelete, uri, nil, nil)
}
