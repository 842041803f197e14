package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sorane/community-archiver/compress"
	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/utils"
)

// FileInfo describes one attempted media download.
type FileInfo struct {
	Path string
	URL  string
	Name string
	Size int64
}

// Result buckets a post's media downloads into the three outcomes. Error
// entries block the media-download stage from finishing; unknown entries
// (no determinable destination filename) do not.
type Result struct {
	Success []FileInfo
	Error   []FileInfo
	Unknown []FileInfo
}

func (r *Result) Empty() bool {
	return len(r.Success) == 0 && len(r.Error) == 0 && len(r.Unknown) == 0
}

// Links downloads every downloadable link of a post into folder,
// concurrently, and classifies each outcome. Video page links are not
// direct files and are skipped; blank links are filtered.
func Links(ctx context.Context, folder string, links []string) Result {
	type candidate struct {
		url   string
		name  string
		index int
	}

	var candidates []candidate
	for i, link := range links {
		if link == "" || isVideoPage(link) {
			continue
		}
		candidates = append(candidates, candidate{
			url:   link,
			name:  fileName(link),
			index: i,
		})
	}

	var result Result
	if len(candidates) == 0 {
		return result
	}

	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading media"),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
	)

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, c := range candidates {
		c := c
		group.Go(func() error {
			defer bar.Add(1)
			info := downloadOne(gctx, folder, c.url, c.name, c.index)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case c.name == "":
				result.Unknown = append(result.Unknown, info)
			case info.Size > 0:
				result.Success = append(result.Success, info)
			default:
				result.Error = append(result.Error, info)
			}
			return nil
		})
	}
	group.Wait()
	bar.Finish()

	for _, info := range result.Success {
		if compress.IsFirstVolume(info.Path) {
			if err := compress.Extract(info.Path, ""); err != nil {
				logger.Logger.Printf("[WARN] Extracting %s: %v", info.Name, err)
			}
		}
	}

	return result
}

// downloadOne fetches a single link. Links without a determinable filename
// are stored under a numbered template with the extension inferred from the
// response.
func downloadOne(ctx context.Context, folder, url, name string, index int) FileInfo {
	path := filepath.Join(folder, name)
	if name == "" {
		path = filepath.Join(folder, fmt.Sprintf("unknown_%d.{ext}", index))
	}

	logger.Logger.Printf("[INFO] Downloading media: %s", url)
	resolved, err := File(ctx, url, path, Options{SizeCheck: true})

	info := FileInfo{URL: url, Name: name}
	if err != nil {
		logger.Logger.Printf("[WARN] Media download failed: %s: %v", url, err)
		return info
	}
	info.Path = resolved
	if size, serr := utils.PathSize(resolved); serr == nil {
		info.Size = size
	}
	return info
}

// fileName derives the destination filename from a URL, or "" when the URL
// carries no usable one.
func fileName(url string) string {
	name := utils.GetFileNameFromURL(url)
	if name == "." || name == "/" || filepath.Ext(name) == "" {
		return ""
	}
	return name
}

// isVideoPage reports whether the link points at a video watch page rather
// than a downloadable file.
func isVideoPage(link string) bool {
	return strings.Contains(link, "youtu.be") || strings.Contains(link, "youtube.com/watch")
}
