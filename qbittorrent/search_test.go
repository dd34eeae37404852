package qbittorrent

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"ubuntu-24.04.1-desktop-amd64.iso": "ubuntu 24 04 1 desktop amd64 iso",
		"Debian (12.5) [netinst]":          "debian 12 5 netinst",
		"":                                 "",
	}

	for input, want := range cases {
		if got := normalizeName(input); got != want {
			t.Fatalf("normalizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestComputeTokenMatch(t *testing.T) {
	desired := []string{"ubuntu", "24", "04"}
	candidate := []string{"ubuntu", "24", "04", "desktop"}

	if got := computeTokenMatch(desired, candidate); got != 1 {
		t.Fatalf("computeTokenMatch returned %f, want 1.0", got)
	}

	if computeTokenMatch(desired, []string{"ubuntu"}) <= 0.3 {
		t.Fatalf("expected partial overlap to be > 0.3")
	}
}

func TestRankMatches(t *testing.T) {
	torrents := []*TorrentInfo{
		{Name: "debian-12.5.0-amd64-netinst.iso", Progress: 1},
		{Name: "ubuntu-24.04-desktop-amd64.iso", Progress: 0.5},
		{Name: "ubuntu-24.04-live-server-amd64.iso", Progress: 1, IsSeeding: true},
		nil,
	}

	matches := rankMatches(torrents, tokenizeName("Ubuntu 24.04"))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Torrent.Name != "ubuntu-24.04-live-server-amd64.iso" {
		t.Fatalf("expected seeding, complete torrent first, got %s", matches[0].Torrent.Name)
	}
	if matches[0].Score > 1+1e-9 {
		t.Fatalf("score must not exceed 1, got %.2f", matches[0].Score)
	}
}
