// Package fetch retrieves remote dataset files. Measurement-campaign
// archives are published over plain HTTP or anonymous FTP, so both are
// supported; the scheme of the source URL selects the transport.
package fetch

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher downloads dataset files into a local directory.
type Fetcher struct {
	http *HTTPClient
	ftp  *FTPClient
}

func New() *Fetcher {
	return &Fetcher{
		http: NewHTTPClient(),
		ftp:  NewFTPClient(),
	}
}

// Fetch downloads rawURL into destDir and returns the local path. The
// destination file is fully overwritten; a partial download never replaces
// an existing file because the body is staged in a temp file first.
func (f *Fetcher) Fetch(rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	name := filepath.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("url %s has no file name", rawURL)
	}

	var body io.ReadCloser
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		body, err = f.http.Get(rawURL)
	case "ftp":
		body, err = f.ftp.Retrieve(u)
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create dest dir: %w", err)
	}

	dest := filepath.Join(destDir, name)
	tmp, err := os.CreateTemp(destDir, name+".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move into place: %w", err)
	}
	return dest, nil
}
