package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request unless the caller overrides it
const DefaultTimeout = 30 * time.Second

// Options configures a sharing client
type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:2861".
	BaseURL string
	// BearerToken is the recipient credential. Empty means anonymous,
	// which only works against servers running without auth.
	BearerToken string
	// HTTPClient overrides the transport; nil uses a client with
	// DefaultTimeout.
	HTTPClient *http.Client
	// Logger receives request-level debug logs; nil disables logging.
	Logger *zap.Logger
}

// Client is a recipient-side client for the sharing API. All methods are
// safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a sharing client from options
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("sdk: BaseURL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, errors.Wrap(err, "sdk: invalid BaseURL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.BearerToken,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// APIError is a server-reported failure, decoded from the error envelope
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sharing server returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an APIError with status 401
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// TablePage is one window of the table listing
type TablePage struct {
	Tables        []string `json:"items"`
	NextPageToken string   `json:"nextPageToken"`
}

// TableVersion identifies a table's latest committed version
type TableVersion struct {
	Table   string `json:"table"`
	Version int64  `json:"version"`
}

// Format describes how a table's data files are encoded
type Format struct {
	Provider string `json:"provider"`
}

// Metadata is the table-level metadata at a version
type Metadata struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Format           Format            `json:"format"`
	Configuration    map[string]string `json:"configuration"`
}

// Protocol carries the minimum reader capabilities the table demands
type Protocol struct {
	MinReaderVersion int `json:"minReaderVersion"`
	MinWriterVersion int `json:"minWriterVersion"`
}

// TableState is the metadata view of a table at a resolved version
type TableState struct {
	Version  int64     `json:"version"`
	Protocol *Protocol `json:"protocol"`
	Metadata *Metadata `json:"metadata"`
}

// File is one active data file of a table version
type File struct {
	Path             string            `json:"path"`
	PartitionValues  map[string]string `json:"partitionValues"`
	Size             int64             `json:"size"`
	ModificationTime int64             `json:"modificationTime"`
	Stats            string            `json:"stats,omitempty"`
}

// FilePage is one window of a table's active files
type FilePage struct {
	Version       int64   `json:"version"`
	Files         []*File `json:"files"`
	NextPageToken string  `json:"nextPageToken"`
}

// Column is one normalized schema column
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema is the normalized column set of a data file
type Schema struct {
	Columns []Column `json:"columns"`
}

// Row is one record keyed by column name
type Row map[string]interface{}

// RowPage is a slice of rows read from one data file
type RowPage struct {
	Version       int64  `json:"version"`
	File          string `json:"file"`
	Schema        Schema `json:"schema"`
	Rows          []Row  `json:"rows"`
	TotalRowCount int64  `json:"totalRowCount"`
}

// ListTables fetches one page of table names
func (c *Client) ListTables(ctx context.Context, maxResults int, pageToken string) (*TablePage, error) {
	query := url.Values{}
	if maxResults > 0 {
		query.Set("maxResults", strconv.Itoa(maxResults))
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var page TablePage
	if err := c.get(ctx, "/api/v1/tables", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllTables follows nextPageToken until the listing is exhausted
func (c *Client) ListAllTables(ctx context.Context) ([]string, error) {
	var tables []string
	token := ""
	for {
		page, err := c.ListTables(ctx, 0, token)
		if err != nil {
			return nil, err
		}
		tables = append(tables, page.Tables...)
		if page.NextPageToken == "" {
			return tables, nil
		}
		token = page.NextPageToken
	}
}

// TableVersion fetches the latest committed version of a table
func (c *Client) TableVersion(ctx context.Context, table string) (*TableVersion, error) {
	var version TableVersion
	if err := c.get(ctx, "/api/v1/tables/"+url.PathEscape(table)+"/version", nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// TableMetadata fetches the table metadata, optionally pinned to a version
func (c *Client) TableMetadata(ctx context.Context, table string, version *int64) (*TableState, error) {
	var state TableState
	if err := c.get(ctx, "/api/v1/tables/"+url.PathEscape(table)+"/metadata", versionQuery(version), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ListFiles fetches one page of the table's active files
func (c *Client) ListFiles(ctx context.Context, table string, version *int64, maxResults int, pageToken string) (*FilePage, error) {
	query := versionQuery(version)
	if query == nil {
		query = url.Values{}
	}
	if maxResults > 0 {
		query.Set("maxResults", strconv.Itoa(maxResults))
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var page FilePage
	if err := c.get(ctx, "/api/v1/tables/"+url.PathEscape(table)+"/files", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// QueryRows fetches rows from one active data file of a table version
func (c *Client) QueryRows(ctx context.Context, table string, version *int64, filePath string, limit, offset int64) (*RowPage, error) {
	query := versionQuery(version)
	if query == nil {
		query = url.Values{}
	}
	query.Set("file", filePath)
	if limit > 0 {
		query.Set("limit", strconv.FormatInt(limit, 10))
	}
	if offset > 0 {
		query.Set("offset", strconv.FormatInt(offset, 10))
	}

	var page RowPage
	if err := c.get(ctx, "/api/v1/tables/"+url.PathEscape(table)+"/rows", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func versionQuery(version *int64) url.Values {
	if version == nil {
		return nil
	}
	query := url.Values{}
	query.Set("version", strconv.FormatInt(*version, 10))
	return query
}

// envelope mirrors the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// get performs one request and decodes the envelope into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "sdk: build request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "sdk: request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("sharing request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "sdk: decode response (status %d)", resp.StatusCode)
	}

	if !env.Success || resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "unknown error"}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "sdk: decode payload")
		}
	}
	return nil
}
