package notion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// maxImageBytes bounds a single attachment download.
const maxImageBytes = 20 << 20

// DownloadError is returned when the file host responds with a non-2xx status.
type DownloadError struct {
	StatusCode int
	URL        string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("notion: download HTTP %d", e.StatusCode)
}

// Downloader fetches attachment bytes from the signed file URLs Notion hands
// out. The URLs carry their own credentials.
type Downloader struct {
	http *http.Client
}

// NewDownloader creates a Downloader. A nil client gets a 60s timeout client.
func NewDownloader(hc *http.Client) *Downloader {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Downloader{http: hc}
}

// Download returns the body at url.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: build download request")
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{StatusCode: resp.StatusCode, URL: url}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "notion: read download")
	}
	if len(data) > maxImageBytes {
		return nil, eris.Errorf("notion: attachment larger than %d bytes", maxImageBytes)
	}
	return data, nil
}
