package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sorane/community-archiver/logger"
)

// Options controls one file download.
type Options struct {
	Retries   int           // attempts before giving up, default 6
	Timeout   time.Duration // per-attempt timeout, default 30s
	SizeCheck bool          // verify the on-disk size against Content-Length
	Headers   map[string]string
}

func (o *Options) fill() {
	if o.Retries <= 0 {
		o.Retries = 6
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
}

// File downloads url to path with bounded retries and returns the
// destination path with any "{ext}" template resolved from the response
// content type. When the server declares a content length, the stored
// file's size is verified against it and a mismatch deletes the file and
// retries. A pre-existing file of the right size short-circuits.
func File(ctx context.Context, url, path string, opts Options) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty destination path")
	}
	opts.fill()

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", err
	}

	client := &http.Client{Timeout: opts.Timeout}
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		resolved, err := downloadOnce(ctx, client, url, path, opts)
		if err != nil {
			logger.Logger.Printf("[WARN] Download attempt %d/%d failed for %s: %v", attempt, opts.Retries, url, err)
			if attempt == opts.Retries {
				break
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}
		return resolved, nil
	}
	return "", fmt.Errorf("download failed after %d attempts: %s", opts.Retries, url)
}

func downloadOnce(ctx context.Context, client *http.Client, url, path string, opts Options) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	remoteSize, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if remoteSize == 0 {
		return "", fmt.Errorf("server returned an empty file")
	}

	// Ext templates are resolved from the response content type.
	if strings.Contains(path, "{ext}") {
		path = strings.ReplaceAll(path, "{ext}", extFromContentType(resp.Header.Get("Content-Type")))
	}

	if info, err := os.Stat(path); err == nil {
		if !opts.SizeCheck || info.Size() == remoteSize {
			logger.Logger.Printf("[INFO] File already exists: %s (%s)", path, humanize.Bytes(uint64(info.Size())))
			return path, nil
		}
		logger.Logger.Printf("[WARN] Size mismatch for existing file %s: server %d, local %d", path, remoteSize, info.Size())
		os.Remove(path)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(path)
		return "", copyErr
	}
	if closeErr != nil {
		os.Remove(path)
		return "", closeErr
	}

	if opts.SizeCheck {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.Size() != remoteSize {
			os.Remove(path)
			return "", fmt.Errorf("size mismatch: server %d, local %d", remoteSize, info.Size())
		}
	}

	logger.Logger.Printf("[INFO] Downloaded %s (%s)", path, humanize.Bytes(uint64(remoteSize)))
	return path, nil
}

// extFromContentType maps a Content-Type header to a filename extension.
func extFromContentType(contentType string) string {
	mediaType := strings.SplitN(contentType, ";", 2)[0]
	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "bin"
	}
	ext := parts[1]
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext
}
