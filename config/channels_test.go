package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChannel(t *testing.T) {
	channel := DefaultChannel("some-channel")

	assert.Equal(t, "some-channel", channel.Name)
	assert.True(t, channel.EnablePosts)
	assert.True(t, channel.EnableMedia)
	assert.True(t, channel.EnableArchive)
	assert.Equal(t, "database/archive.sqlite", channel.ArchiveOutput)
	assert.Equal(t, "gpt-4o-mini", channel.TranslateModel)
	assert.False(t, channel.EnableTranslate, "translation stays off until an api key is configured")
}

func TestLoadChannels(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.toml"), []byte(
		"url = \"https://www.youtube.com/@alpha\"\n"+
			"enable_media = false\n"+
			"original_webhook = \"https://discord.test/hook\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("url = [not toml"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "disable"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disable", "off.toml"), []byte("url = \"x\"\n"), 0644))

	channels, err := LoadChannels(dir)
	require.NoError(t, err)
	require.Len(t, channels, 1, "broken files, non-toml files and subdirectories are skipped")

	channel := channels[0]
	assert.Equal(t, "alpha", channel.Name, "the name comes from the file name")
	assert.Equal(t, "https://www.youtube.com/@alpha", channel.URL)
	assert.False(t, channel.EnableMedia, "file values override the defaults")
	assert.True(t, channel.EnablePosts, "unset values keep the defaults")
	assert.Equal(t, "https://discord.test/hook", channel.OriginalWebhook)
}

func TestLoadChannels_MissingDir(t *testing.T) {
	_, err := LoadChannels(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCreateDefaultChannels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "channels")

	require.NoError(t, CreateDefaultChannels(dir))

	_, err := os.Stat(filepath.Join(dir, "disable", "default.toml"))
	require.NoError(t, err)

	// the seeded example is not picked up by a normal load
	channels, err := LoadChannels(dir)
	require.NoError(t, err)
	assert.Empty(t, channels)
}
