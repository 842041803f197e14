package utils

import (
	"net/url"
	"path"
)

func GetFileNameFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}

func GetQSValue(urlStr string, key string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	values := u.Query()
	return values.Get(key)
}

func JoinURL(baseURL, relativePath string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	relative, err := url.Parse(relativePath)
	if err != nil {
		return ""
	}

	return base.ResolveReference(relative).String()
}
