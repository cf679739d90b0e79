package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/romariotrain/shortfeed/internal/video/models"
)

type Downloader struct {
	client *http.Client
	dir    string
}

// NewDownloader saves media into dir. A nil client gets a 2 minute timeout.
func NewDownloader(client *http.Client, dir string) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Downloader{client: client, dir: dir}
}

// Download fetches the video's media and writes it as a local file, returning
// the file path. Every failure is a *models.DownloadError.
func (d *Downloader) Download(ctx context.Context, v models.Video) (string, error) {
	path, err := d.download(ctx, v)
	if err != nil {
		return "", &models.DownloadError{VideoID: v.ID, Err: err}
	}
	return path, nil
}

func (d *Downloader) download(ctx context.Context, v models.Video) (string, error) {
	if v.MediaURL == "" {
		return "", models.ErrInvalidArgument
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.MediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close media: %w", err)
	}

	dest := filepath.Join(d.dir, FileName(v.Title))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move media: %w", err)
	}
	return dest, nil
}

// FileName is the local name offered for a saved clip.
func FileName(title string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(title))
	if clean == "" {
		clean = "video"
	}
	return "devotional-" + clean + ".mp4"
}
