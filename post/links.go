package post

import (
	"strings"

	"github.com/sorane/community-archiver/utils"
)

// AllLinks assembles the full link set of a post: content links, attachment
// URLs and the attached video URL, in that order, deduplicated. Two URLs
// that reference the same video under different shapes (short link vs
// canonical watch link) collapse to the first one seen.
func AllLinks(v *View) []string {
	seen := make(map[string]bool)
	videoKeys := make(map[string]bool)
	var links []string

	add := func(link string) {
		if seen[link] {
			return
		}
		seen[link] = true
		if key := videoKey(link); key != "" {
			if videoKeys[key] {
				return
			}
			videoKeys[key] = true
		}
		links = append(links, link)
	}

	for _, link := range v.ContentLinks {
		add(link)
	}
	for _, link := range v.Attachments {
		add(link)
	}
	if v.Video != nil {
		add(v.Video.URL)
	}
	return links
}

// videoKey extracts the video identifier shared by youtu.be short links and
// youtube.com watch links, or "" for anything else.
func videoKey(link string) string {
	if strings.Contains(link, "youtu.be") {
		return utils.GetFileNameFromURL(link)
	}
	if strings.Contains(link, "youtube.com/watch") {
		return utils.GetQSValue(link, "v")
	}
	return ""
}
