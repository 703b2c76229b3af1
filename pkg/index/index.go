// Package index is a read-only client for the JSON flavor of the Simple
// Repository API (PEP 691).
//
// It knows how to do exactly one thing: list the published files of one
// package, with their content hashes.  That is all the incremental-publish
// decision needs.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

const (
	PyPIBaseURL = "https://pypi.org/simple/"

	contentType = "application/vnd.pypi.simple.v1+json"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds the network call.  It does not apply to anything
	// else in a run; builds are unbounded but trusted.
	Timeout time.Duration
}

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/jorenham/compatbuild/pkg/index"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

// File is one published artifact of a package.
type File struct {
	Filename string            `json:"filename"`
	Hashes   map[string]string `json:"hashes"`
}

// SHA256 returns the file's sha256 content hash, or "" if the index did
// not publish one.
func (f File) SHA256() string {
	return f.Hashes["sha256"]
}

type projectPage struct {
	Name  string  `json:"name"`
	Files []*File `json:"files"`
}

// ListFiles fetches the published files for pkgname.  A package that has
// never been published is not an error; it lists as empty.
func (c Client) ListFiles(ctx context.Context, pkgname string) (_ []File, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("index: list files for %q: %w", pkgname, err)
		}
	}()
	// "the only valid characters in a name are the ASCII alphabet, ASCII
	// numbers, `.`, `-`, and `_`."
	for _, char := range pkgname {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return nil, fmt.Errorf("illegal character in pkgname: %s",
				strconv.QuoteRuneToASCII(char))
		}
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, pkgname) + "/"

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Never published; empty history.
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}

	var page projectPage
	if err := json.Unmarshal(content, &page); err != nil {
		return nil, fmt.Errorf("unrecognized index response: %w", err)
	}
	if page.Files == nil {
		return nil, fmt.Errorf("unrecognized index response: no \"files\" key")
	}
	files := make([]File, 0, len(page.Files))
	for _, file := range page.Files {
		if file == nil || file.Filename == "" {
			return nil, fmt.Errorf("unrecognized index response: file entry without filename")
		}
		files = append(files, *file)
	}
	return files, nil
}
