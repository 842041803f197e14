package utils

import "strings"

// OriginImageSuffix forces the unscaled original-resolution variant of a
// YouTube image URL.
const OriginImageSuffix = "=s0?imgmax=0"

// OriginImageURL rewrites a thumbnail URL to its original-resolution form:
// scheme-relative URLs gain an https: prefix, the trailing size parameter
// is cut off and replaced with the max-resolution suffix.
func OriginImageURL(url string) string {
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http:") && !strings.HasPrefix(url, "https:") {
		url = "https:" + url
	}
	if i := strings.LastIndex(url, "=s"); i != -1 {
		url = url[:i]
	}
	return url + OriginImageSuffix
}
