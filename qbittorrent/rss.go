package qbittorrent

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/s0up4200/qbitctl/server"
	"github.com/s0up4200/qbitctl/session"
)

// rssPathSeparator joins folder and feed names in RSS item paths.
const rssPathSeparator = `\`

// Article is one RSS item of a feed.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description NullString `json:"description"`
	Date        string     `json:"date"`
	Link        NullString `json:"link"`
	TorrentURL  NullString `json:"torrentURL"`
	Author      NullString `json:"author"`
	Category    NullString `json:"category"`
	IsRead      bool       `json:"isRead"`

	// FeedPath is the path of the feed the article came from.
	FeedPath string `json:"-"`
}

// PublishedAt parses the feed date, returning the zero time when it is not RFC 1123.
func (a Article) PublishedAt() time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339, "02 Jan 2006 15:04:05 -0700"} {
		if t, err := time.Parse(layout, strings.TrimSpace(a.Date)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Feed is a subscribed RSS feed.
type Feed struct {
	UID           string     `json:"uid"`
	URL           string     `json:"url"`
	Title         NullString `json:"title"`
	LastBuildDate NullString `json:"lastBuildDate"`
	IsLoading     bool       `json:"isLoading"`
	HasError      bool       `json:"hasError"`
	Articles      []Article  `json:"articles"`
}

// FeedNode is a folder or a feed in the RSS tree.
type FeedNode struct {
	Name     string
	Path     string
	Feed     *Feed
	Children []*FeedNode
}

// IsFeed reports whether the node is a feed rather than a folder
func (n *FeedNode) IsFeed() bool {
	return n.Feed != nil
}

// Find looks up a descendant by its full item path.
func (n *FeedNode) Find(path string) *FeedNode {
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits the node and its descendants depth first.
func (n *FeedNode) Walk(fn func(*FeedNode)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// FeedTree is the root folder of the rss/items payload.
type FeedTree struct {
	Root *FeedNode
}

// UnmarshalJSON builds the tree. Objects carrying a "uid" are feeds, everything else is a folder.
func (t *FeedTree) UnmarshalJSON(data []byte) error {
	root := &FeedNode{}
	if err := decodeFolder(data, root); err != nil {
		return err
	}
	t.Root = root
	return nil
}

func decodeFolder(data []byte, folder *FeedNode) error {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := items[name]
		node := &FeedNode{Name: name, Path: name}
		if folder.Path != "" {
			node.Path = folder.Path + rssPathSeparator + name
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return err
		}

		if _, isFeed := probe["uid"]; isFeed {
			var feed Feed
			if err := json.Unmarshal(raw, &feed); err != nil {
				return err
			}
			for i := range feed.Articles {
				feed.Articles[i].FeedPath = node.Path
			}
			node.Feed = &feed
		} else if err := decodeFolder(raw, node); err != nil {
			return err
		}

		folder.Children = append(folder.Children, node)
	}

	return nil
}

// RSSItems returns the feed tree including articles
func (c *Client) RSSItems(ctx context.Context, profile server.Profile) session.Result[*FeedNode] {
	result := session.Execute(ctx, c.sessions, profile,
		session.GetJSON[FeedTree]("rss/items", url.Values{"withData": {"true"}}))

	return session.Map(result, func(tree FeedTree) *FeedNode {
		return tree.Root
	})
}

// RSSArticles returns the articles of a feed, or of every feed below a folder,
// newest first. An empty path means the whole tree.
func (c *Client) RSSArticles(ctx context.Context, profile server.Profile, path string) session.Result[[]Article] {
	result := c.RSSItems(ctx, profile)
	if !result.OK() {
		return session.Failure[[]Article](result.Err())
	}

	node := result.Value().Find(path)
	if node == nil {
		return session.Failure[[]Article](notFound(ErrFeedNotFound))
	}

	return session.Success(collectArticles(node))
}

func collectArticles(node *FeedNode) []Article {
	articles := []Article{}
	node.Walk(func(n *FeedNode) {
		if n.IsFeed() {
			articles = append(articles, n.Feed.Articles...)
		}
	})

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt().After(articles[j].PublishedAt())
	})

	return articles
}

// AddFeed subscribes to a feed URL, placing it at path
func (c *Client) AddFeed(ctx context.Context, profile server.Profile, feedURL, path string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("rss/addFeed", url.Values{"url": {feedURL}, "path": {path}}))
}

// AddFolder creates an RSS folder
func (c *Client) AddFolder(ctx context.Context, profile server.Profile, path string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("rss/addFolder", url.Values{"path": {path}}))
}

// RemoveItem deletes a feed or folder
func (c *Client) RemoveItem(ctx context.Context, profile server.Profile, path string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("rss/removeItem", url.Values{"path": {path}}))
}

// MoveItem moves or renames a feed or folder
func (c *Client) MoveItem(ctx context.Context, profile server.Profile, from, to string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("rss/moveItem", url.Values{"itemPath": {from}, "destPath": {to}}))
}

// RefreshItem asks the daemon to reload a feed or every feed in a folder
func (c *Client) RefreshItem(ctx context.Context, profile server.Profile, path string) session.Result[string] {
	return session.Execute(ctx, c.sessions, profile,
		session.PostText("rss/refreshItem", url.Values{"itemPath": {path}}))
}

// MarkAsRead marks one article, or the whole item when articleID is empty, as read
func (c *Client) MarkAsRead(ctx context.Context, profile server.Profile, path, articleID string) session.Result[string] {
	form := url.Values{"itemPath": {path}}
	if articleID != "" {
		form.Set("articleId", articleID)
	}
	return session.Execute(ctx, c.sessions, profile, session.PostText("rss/markAsRead", form))
}
