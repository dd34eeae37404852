package qbittorrent

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssItems = `{
	"Linux": {
		"Ubuntu": {
			"uid": "{1}", "url": "https://ubuntu.example/rss", "title": "Ubuntu releases",
			"articles": [
				{"id": "u1", "title": "Ubuntu 24.04", "date": "Thu, 25 Apr 2024 12:00:00 +0000", "torrentURL": "https://ubuntu.example/24.04.torrent", "isRead": false},
				{"id": "u2", "title": "Ubuntu 23.10", "date": "Thu, 12 Oct 2023 12:00:00 +0000", "isRead": true}
			]
		},
		"Empty": {}
	},
	"Debian": {
		"uid": "{2}", "url": "https://debian.example/rss", "title": "",
		"articles": [
			{"id": "d1", "title": "Debian 12.5", "date": "Sat, 10 Feb 2024 09:00:00 +0000", "description": ""}
		]
	}
}`

func TestRSSItems(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("rss/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("withData"))
		fmt.Fprint(w, rssItems)
	})

	client, profile := d.client()
	result := client.RSSItems(context.Background(), profile)
	require.True(t, result.OK(), "rss: %v", result.Err())

	root := result.Value()
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Debian", root.Children[0].Name)
	assert.True(t, root.Children[0].IsFeed())
	assert.False(t, root.Children[0].Feed.Title.Valid)

	ubuntu := root.Find(`Linux\Ubuntu`)
	require.NotNil(t, ubuntu)
	require.True(t, ubuntu.IsFeed())
	assert.Len(t, ubuntu.Feed.Articles, 2)
	assert.Equal(t, `Linux\Ubuntu`, ubuntu.Feed.Articles[0].FeedPath)

	empty := root.Find(`Linux\Empty`)
	require.NotNil(t, empty)
	assert.False(t, empty.IsFeed())
	assert.Empty(t, empty.Children)
}

func TestRSSArticles(t *testing.T) {
	d := newTestDaemon(t)
	d.handle("rss/items", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssItems)
	})

	client, profile := d.client()
	ctx := context.Background()

	all := client.RSSArticles(ctx, profile, "")
	require.True(t, all.OK())
	ids := make([]string, 0, len(all.Value()))
	for _, a := range all.Value() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"u1", "d1", "u2"}, ids, "articles should be newest first")

	linux := client.RSSArticles(ctx, profile, "Linux")
	require.True(t, linux.OK())
	assert.Len(t, linux.Value(), 2)
	assert.Equal(t, "https://ubuntu.example/24.04.torrent", linux.Value()[0].TorrentURL.String)

	missing := client.RSSArticles(ctx, profile, "Nope")
	require.False(t, missing.OK())
	assert.ErrorIs(t, missing.Err(), ErrFeedNotFound)
}

func TestRSSMutations(t *testing.T) {
	d := newTestDaemon(t)

	var got []string
	record := func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		got = append(got, r.URL.Path+"?"+r.PostForm.Encode())
	}
	for _, path := range []string{"rss/addFeed", "rss/addFolder", "rss/removeItem", "rss/moveItem", "rss/refreshItem", "rss/markAsRead"} {
		d.handle(path, record)
	}

	client, profile := d.client()
	ctx := context.Background()

	require.True(t, client.AddFolder(ctx, profile, "Linux").OK())
	require.True(t, client.AddFeed(ctx, profile, "https://arch.example/rss", `Linux\Arch`).OK())
	require.True(t, client.MoveItem(ctx, profile, `Linux\Arch`, "Arch").OK())
	require.True(t, client.RefreshItem(ctx, profile, "Arch").OK())
	require.True(t, client.MarkAsRead(ctx, profile, "Arch", "").OK())
	require.True(t, client.RemoveItem(ctx, profile, "Arch").OK())

	assert.Equal(t, []string{
		"/api/v2/rss/addFolder?path=Linux",
		"/api/v2/rss/addFeed?path=Linux%5CArch&url=https%3A%2F%2Farch.example%2Frss",
		"/api/v2/rss/moveItem?destPath=Arch&itemPath=Linux%5CArch",
		"/api/v2/rss/refreshItem?itemPath=Arch",
		"/api/v2/rss/markAsRead?itemPath=Arch",
		"/api/v2/rss/removeItem?path=Arch",
	}, got)
}

func TestArticlePublishedAt(t *testing.T) {
	a := Article{Date: "Thu, 25 Apr 2024 12:00:00 +0000"}
	assert.Equal(t, 2024, a.PublishedAt().Year())
	assert.True(t, Article{Date: "yesterday"}.PublishedAt().IsZero())
}
