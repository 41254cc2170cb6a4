package storage

import (
	"strings"
	"testing"

	"magicwords/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageKey(t *testing.T) {
	a := NewImageKey(".PNG")
	b := NewImageKey(".PNG")
	assert.True(t, strings.HasPrefix(a, ImagePrefix))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
	assert.True(t, ValidKey(a))
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("images/abc.jpg"))
	assert.False(t, ValidKey("images/"))
	assert.False(t, ValidKey("other/abc.jpg"))
	assert.False(t, ValidKey("images/../secret"))
	assert.False(t, ValidKey("images//abc.jpg"))
}

func TestURLBuilder(t *testing.T) {
	key := "images/a.png"
	assert.Equal(t, "/media/images/a.png", *URLBuilder{}.URL(&key))
	assert.Equal(t, "https://cdn.example.com/images/a.png", *URLBuilder{Prefix: "https://cdn.example.com"}.URL(&key))
	assert.Nil(t, URLBuilder{}.URL(nil))

	empty := ""
	assert.Nil(t, URLBuilder{}.URL(&empty))
}

func TestBucketStatsAdd(t *testing.T) {
	s := BucketStats{ByExtension: map[string]int64{}}
	s.add("images/a.PNG", 1000)
	s.add("images/b.png", 24)
	s.add("images/c", 1)

	assert.Equal(t, int64(3), s.TotalObjects)
	assert.Equal(t, int64(1024), s.ByExtension[".png"])
	assert.Equal(t, int64(1), s.ByExtension["(none)"])
	assert.Equal(t, "3 objects, 1.0 kB", s.String())
}

func TestNewMinioStoreDoesNotDial(t *testing.T) {
	s, err := NewMinioStore(&config.Config{MinioEndpoint: "127.0.0.1:1", MinioBucket: "b", MinioRegion: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "b", s.Bucket())
}
