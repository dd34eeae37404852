package qbittorrent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048575, "1023.9 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024 / 2, "1.50 GiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
	assert.Equal(t, "1.0 KiB/s", FormatSpeed(1024))
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		in     int64
		want   string
		wantOK bool
	}{
		{45, "45s", true},
		{120, "2m", true},
		{125, "2m 5s", true},
		{3600, "1h", true},
		{3600 + 20*60, "1h 20m", true},
		{2 * 24 * 60 * 60, "48h", true},
		{3 * 24 * 60 * 60, "3d", true},
		{3*24*60*60 + 3*60*60, "3d 3h", true},
		{8640000, "∞", false},
		{-1, "∞", false},
	}

	for _, tt := range tests {
		got, ok := FormatETA(tt.in)
		assert.Equal(t, tt.want, got, "FormatETA(%d)", tt.in)
		assert.Equal(t, tt.wantOK, ok, "FormatETA(%d)", tt.in)
	}
}

func TestStateLabel(t *testing.T) {
	assert.Equal(t, "Seeding", StateLabel("uploading"))
	assert.Equal(t, "Paused", StateLabel("pausedDL"))
	assert.Equal(t, "Downloading metadata", StateLabel("metaDL"))
	assert.Equal(t, "Unknown", StateLabel("somethingNew"))
}
