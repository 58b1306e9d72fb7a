// Package github wraps the platform API behind three request primitives:
// single GETs, paginated GETs, and JSON writes. Every call carries bearer
// auth and the API version header; non-2xx statuses come back as values so
// each caller can decide what a 404 or 403 means for its endpoint.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v60/github"
)

// Client wraps the GitHub API client.
type Client struct {
	client *github.Client
}

// Response is one API response with the status carried as a value.
// NextPage is the page number advertised by the Link header's "next"
// relation, zero when there is none.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	NextPage   int
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NotFound reports whether the status is 404.
func (r *Response) NotFound() bool {
	return r.StatusCode == http.StatusNotFound
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Get performs a single GET. path may be relative to the API base
// ("repos/acme/widgets/issues/5") or an absolute API URL as returned in
// response payloads. No pagination is followed at this layer.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Send performs a write request (POST, PATCH, ...) with a JSON-encoded body.
func (c *Client) Send(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	return c.do(ctx, method, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	req, err := c.client.NewRequest(method, path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request for %s: %w", method, path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.BareDo(ctx, req)
	if resp == nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &TransportError{Op: method + " " + path, Err: readErr}
	}
	// A non-2xx status surfaces from BareDo as an error value with the
	// response still attached and its body restored; 202s arrive as
	// AcceptedError with the body drained into Raw. Both are ordinary
	// responses here.
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) && len(data) == 0 {
			data = accepted.Raw
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Header:     resp.Header,
		NextPage:   resp.NextPage,
	}, nil
}

// FileContent fetches one file from a repository via the contents API,
// returning its decoded bytes. ref may be empty for the default branch.
func (c *Client) FileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, path)
	if ref != "" {
		p += "?ref=" + url.QueryEscape(ref)
	}

	resp, err := c.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Resource: "repository contents", StatusCode: resp.StatusCode}
	}

	var content github.RepositoryContent
	if err := resp.Decode(&content); err != nil {
		return nil, err
	}
	data, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return []byte(data), nil
}

// Pager walks a paginated GET endpoint page by page, following the "next"
// relation until the API stops advertising one. It is lazy, finite, and not
// restartable. Usage mirrors bufio.Scanner:
//
//	pager := client.Pages(ctx, "repos/acme/widgets/contributors?per_page=100")
//	for pager.Next() {
//		page := pager.Page()
//		...
//	}
//	if err := pager.Err(); err != nil { ... }
type Pager struct {
	client *Client
	ctx    context.Context
	path   string
	page   *Response
	err    error
	done   bool
}

// Pages returns a Pager over the given GET path.
func (c *Client) Pages(ctx context.Context, path string) *Pager {
	return &Pager{client: c, ctx: ctx, path: path}
}

// Next fetches the next page. It returns false when the previous page
// advertised no successor or a transport error occurred.
func (p *Pager) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	resp, err := p.client.Get(p.ctx, p.path)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}
	p.page = resp

	// Missing or malformed link metadata parses as page zero, which
	// terminates the walk.
	if resp.NextPage == 0 {
		p.done = true
		return true
	}
	next, err := withPage(p.path, resp.NextPage)
	if err != nil {
		p.done = true
		return true
	}
	p.path = next
	return true
}

// Page returns the most recently fetched page.
func (p *Pager) Page() *Response {
	return p.page
}

// Err returns the transport error that aborted the walk, if any.
func (p *Pager) Err() error {
	return p.err
}

func withPage(path string, page int) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
