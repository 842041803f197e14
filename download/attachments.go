package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/utils"
)

// SaveAttachments fetches every original-resolution attachment image of a
// post into folder, concurrently. Destinations are numbered
// <pid>_<n>.{ext} with the extension taken from the response content type.
// Completion order is not the link order; the call returns once every fetch
// finished or failed.
func SaveAttachments(ctx context.Context, folder, pid string, links []string) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	n := 0
	for _, link := range links {
		if !strings.Contains(link, utils.OriginImageSuffix) {
			continue
		}
		url := link
		path := filepath.Join(folder, fmt.Sprintf("%s_%d.{ext}", pid, n))
		n++
		logger.Logger.Printf("[INFO] [PID:%s] Downloading attachment: %s", pid, url)
		group.Go(func() error {
			_, err := File(ctx, url, path, Options{
				Retries:   3,
				Timeout:   10 * time.Second,
				SizeCheck: true,
			})
			return err
		})
	}
	return group.Wait()
}
