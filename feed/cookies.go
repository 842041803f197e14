package feed

import (
	"bufio"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sorane/community-archiver/logger"
)

// defaultCookies are the consent cookies that let anonymous requests
// through the EU consent wall.
func defaultCookies() []*http.Cookie {
	return []*http.Cookie{
		{
			Name:   "SOCS",
			Value:  "CAESNQgDEitib3FfaWRlbnRpdHlmcm9udGVuZHVpc2VydmVyXzIwMjIwNzA1LjE2X3AwGgJwdCACGgYIgOedlgY",
			Domain: ".youtube.com",
			Path:   "/",
		},
		{
			Name:   "CONSENT",
			Value:  "PENDING+917",
			Domain: ".youtube.com",
			Path:   "/",
		},
	}
}

// newCookieJar builds the client jar, seeded from a Netscape cookies.txt
// file when one is configured and readable, falling back to the baked-in
// consent cookies otherwise.
func newCookieJar(cookiesPath string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	cookies := defaultCookies()
	if cookiesPath != "" {
		loaded, err := parseNetscapeCookies(cookiesPath)
		if err != nil {
			logger.Logger.Printf("[ERROR] Cannot read cookies file %s: %v, falling back to default cookies", cookiesPath, err)
		} else {
			logger.Logger.Printf("[INFO] Loaded %d cookies from %s", len(loaded), cookiesPath)
			cookies = append(cookies, loaded...)
		}
	}

	siteURL, _ := url.Parse(siteRoot)
	jar.SetCookies(siteURL, cookies)
	return jar, nil
}

// parseNetscapeCookies reads a cookies.txt export: seven tab-separated
// fields per line, comments starting with # except the #HttpOnly_ domain
// prefix.
func parseNetscapeCookies(path string) ([]*http.Cookie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#HttpOnly_") {
			continue
		}
		line = strings.TrimPrefix(line, "#HttpOnly_")

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}

		expires, _ := strconv.ParseInt(fields[4], 10, 64)
		cookie := &http.Cookie{
			Domain: fields[0],
			Path:   fields[2],
			Secure: fields[3] == "TRUE",
			Name:   fields[5],
			Value:  fields[6],
		}
		if expires > 0 {
			cookie.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, scanner.Err()
}
