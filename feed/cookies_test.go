package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetscapeCookies(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		"# This is a comment\n" +
		"\n" +
		".youtube.com\tTRUE\t/\tTRUE\t1893456000\tSID\tsid-value\n" +
		"#HttpOnly_.youtube.com\tTRUE\t/\tTRUE\t1893456000\tHSID\thsid-value\n" +
		".youtube.com\tTRUE\t/\tFALSE\t0\tPREF\tpref-value\n" +
		"malformed line without tabs\n"

	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cookies, err := parseNetscapeCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 3)

	assert.Equal(t, "SID", cookies[0].Name)
	assert.Equal(t, "sid-value", cookies[0].Value)
	assert.Equal(t, ".youtube.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, time.Unix(1893456000, 0), cookies[0].Expires)

	assert.Equal(t, "HSID", cookies[1].Name, "the HttpOnly prefix is stripped")

	assert.Equal(t, "PREF", cookies[2].Name)
	assert.False(t, cookies[2].Secure)
	assert.True(t, cookies[2].Expires.IsZero(), "a session cookie has no expiry")
}

func TestParseNetscapeCookies_MissingFile(t *testing.T) {
	_, err := parseNetscapeCookies(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestNewCookieJar_FallsBackToDefaults(t *testing.T) {
	jar, err := newCookieJar(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err, "an unreadable cookies file is not fatal")
	require.NotNil(t, jar)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("")
	require.NoError(t, err)
	assert.NotNil(t, client.httpClient.Jar)
}
