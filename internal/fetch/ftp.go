package fetch

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPClient retrieves files from anonymous FTP archives.
type FTPClient struct {
	timeout time.Duration
}

func NewFTPClient() *FTPClient {
	return &FTPClient{timeout: 30 * time.Second}
}

// Retrieve downloads the path of an ftp:// URL. The whole body is read
// before the connection closes, so callers get a plain ReadCloser.
func (c *FTPClient) Retrieve(u *url.URL) (io.ReadCloser, error) {
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(c.timeout))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", host, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", u.Path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read %s: %w", u.Path, err)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
