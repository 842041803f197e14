package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks_Classification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/photo.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pngdata"))
		case "/share/abc123":
			w.Header().Set("Content-Type", "application/zip")
			w.Write([]byte("zipdata"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	folder := t.TempDir()
	links := []string{
		"",
		"https://youtu.be/XYZ",
		"https://www.youtube.com/watch?v=XYZ",
		server.URL + "/files/photo.png",
		server.URL + "/share/abc123",
	}

	result := Links(context.Background(), folder, links)

	require.Len(t, result.Success, 1)
	assert.Equal(t, "photo.png", result.Success[0].Name)
	assert.Equal(t, int64(len("pngdata")), result.Success[0].Size)

	require.Len(t, result.Unknown, 1, "a link without a filename is unknown even when it downloaded")
	assert.Equal(t, server.URL+"/share/abc123", result.Unknown[0].URL)
	assert.Equal(t, filepath.Join(folder, "unknown_4.zip"), result.Unknown[0].Path,
		"the reported path carries the extension resolved from the response")
	assert.Equal(t, int64(len("zipdata")), result.Unknown[0].Size)

	assert.Empty(t, result.Error, "blank and video links are skipped, not failed")

	_, err := os.Stat(filepath.Join(folder, "photo.png"))
	assert.NoError(t, err)
	_, err = os.Stat(result.Unknown[0].Path)
	assert.NoError(t, err, "nameless links land under the numbered template")
}

func TestLinks_NothingToDo(t *testing.T) {
	result := Links(context.Background(), t.TempDir(), []string{"", "https://youtu.be/XYZ"})
	assert.True(t, result.Empty())
}

func TestResultEmpty(t *testing.T) {
	assert.True(t, (&Result{}).Empty())
	assert.False(t, (&Result{Error: []FileInfo{{}}}).Empty())
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b/file.zip", "file.zip"},
		{"https://example.com/a/b/file.zip?dl=1", "file.zip"},
		{"https://example.com/share/abc123", ""},
		{"https://example.com/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.url))
		})
	}
}

func TestIsVideoPage(t *testing.T) {
	assert.True(t, isVideoPage("https://youtu.be/XYZ"))
	assert.True(t, isVideoPage("https://www.youtube.com/watch?v=XYZ"))
	assert.False(t, isVideoPage("https://example.com/video.mp4"))
}
