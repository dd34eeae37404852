package qbittorrent

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

const (
	minNameMatchThreshold    = 0.6
	defaultMaxTorrentMatches = 10
)

// TorrentMatch is a torrent whose name resembles a search query.
type TorrentMatch struct {
	Torrent   *TorrentInfo
	Score     float64
	NameMatch float64
}

// FindByName ranks torrents whose names contain most of the query's words.
func (c *Client) FindByName(ctx context.Context, profile server.Profile, query string) session.Result[[]*TorrentMatch] {
	queryTokens := tokenizeName(query)
	if len(queryTokens) == 0 {
		return session.Success([]*TorrentMatch{})
	}

	result := c.Torrents(ctx, profile, ListOptions{})
	return session.Map(result, func(torrents []*TorrentInfo) []*TorrentMatch {
		return rankMatches(torrents, queryTokens)
	})
}

func rankMatches(torrents []*TorrentInfo, queryTokens []string) []*TorrentMatch {
	matches := make([]*TorrentMatch, 0, len(torrents))
	for _, torrent := range torrents {
		if torrent == nil || torrent.Name == "" {
			continue
		}
		if match := evaluateNameMatch(torrent, queryTokens); match != nil {
			matches = append(matches, match)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > defaultMaxTorrentMatches {
		matches = matches[:defaultMaxTorrentMatches]
	}

	return matches
}

// evaluateNameMatch returns a match when enough query words appear in the torrent name.
func evaluateNameMatch(torrent *TorrentInfo, queryTokens []string) *TorrentMatch {
	tokens := tokenizeName(torrent.Name)
	if len(tokens) == 0 {
		return nil
	}

	nameMatch := computeTokenMatch(queryTokens, tokens)
	if nameMatch < minNameMatchThreshold {
		return nil
	}

	// Name similarity dominates; seeding and completion break ties.
	score := nameMatch * 0.9
	if torrent.IsSeeding {
		score += 0.05
	}
	if torrent.IsComplete() {
		score += 0.05
	}

	return &TorrentMatch{
		Torrent:   torrent,
		Score:     score,
		NameMatch: nameMatch,
	}
}

// tokenizeName splits a torrent name into normalized tokens for comparison.
func tokenizeName(input string) []string {
	clean := normalizeName(input)
	if clean == "" {
		return nil
	}
	return strings.Fields(clean)
}

// normalizeName lowercases input and keeps only letters and digits separated by single spaces.
func normalizeName(input string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// computeTokenMatch returns the share of desired tokens present in candidate.
func computeTokenMatch(desired, candidate []string) float64 {
	if len(desired) == 0 || len(candidate) == 0 {
		return 0
	}

	candidateSet := make(map[string]struct{}, len(candidate))
	for _, token := range candidate {
		candidateSet[token] = struct{}{}
	}

	var matches int
	for _, token := range desired {
		if _, ok := candidateSet[token]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(desired))
}
