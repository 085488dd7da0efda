package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidyasagar/framesurf/internal/browser"
)

// ErrAlreadyBookmarked is returned by Add for a URL that is already saved.
var ErrAlreadyBookmarked = errors.New("already bookmarked")

// Bookmark represents a saved page.
type Bookmark struct {
	ID        int64
	URL       string
	Title     string
	Tags      []string
	CreatedAt time.Time
}

// BookmarkStore manages bookmarks persisted in SQLite.
type BookmarkStore struct {
	db *sql.DB
}

// NewBookmarkStore creates a bookmark store using the given database.
func NewBookmarkStore(db *DB) *BookmarkStore {
	return &BookmarkStore{db: db.Conn()}
}

// Add saves a bookmark. Tags are trimmed and empty ones dropped.
func (bs *BookmarkStore) Add(url, title string, tags ...string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("bookmark url is empty")
	}

	var clean []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}

	res, err := bs.db.Exec(
		`INSERT OR IGNORE INTO bookmarks (url, title, tags) VALUES (?, ?, ?)`,
		url, title, strings.Join(clean, ","),
	)
	if err != nil {
		return fmt.Errorf("adding bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyBookmarked
	}
	return nil
}

// Remove removes a bookmark by URL. Returns false if not found.
func (bs *BookmarkStore) Remove(url string) (bool, error) {
	res, err := bs.db.Exec(`DELETE FROM bookmarks WHERE url = ?`, url)
	if err != nil {
		return false, fmt.Errorf("removing bookmark: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Has reports whether a URL is bookmarked.
func (bs *BookmarkStore) Has(url string) bool {
	var count int
	err := bs.db.QueryRow(`SELECT COUNT(*) FROM bookmarks WHERE url = ?`, url).Scan(&count)
	return err == nil && count > 0
}

// List returns all bookmarks, newest first.
func (bs *BookmarkStore) List() ([]Bookmark, error) {
	rows, err := bs.db.Query(
		`SELECT id, url, title, tags, created_at FROM bookmarks ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()
	return scanBookmarks(rows)
}

// Search finds bookmarks whose title, URL or tags contain query.
func (bs *BookmarkStore) Search(query string) ([]Bookmark, error) {
	like := "%" + query + "%"
	rows, err := bs.db.Query(
		`SELECT id, url, title, tags, created_at FROM bookmarks
		 WHERE title LIKE ? OR url LIKE ? OR tags LIKE ?
		 ORDER BY created_at DESC, id DESC`,
		like, like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("searching bookmarks: %w", err)
	}
	defer rows.Close()
	return scanBookmarks(rows)
}

// Count returns the number of bookmarks.
func (bs *BookmarkStore) Count() int {
	var count int
	if err := bs.db.QueryRow(`SELECT COUNT(*) FROM bookmarks`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanBookmarks(rows *sql.Rows) ([]Bookmark, error) {
	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		var tagStr string
		var createdAt any
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &tagStr, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		if tagStr != "" {
			b.Tags = strings.Split(tagStr, ",")
		}
		b.CreatedAt = parseTime(createdAt)
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// parseTime accepts the forms the sqlite driver returns for DATETIME columns.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// RenderBookmarks formats bookmarks for the viewport. The returned links carry
// no document node, so following one starts a fresh navigation.
func RenderBookmarks(bookmarks []Bookmark) (string, []browser.Link) {
	var sb strings.Builder
	var links []browser.Link

	sb.WriteString("  Bookmarks\n")
	sb.WriteString("  ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if len(bookmarks) == 0 {
		sb.WriteString("  No bookmarks yet. Press 'B' to bookmark a page.\n")
		return sb.String(), links
	}

	for i, b := range bookmarks {
		idx := i + 1
		title := b.Title
		if title == "" {
			title = b.URL
		}
		fmt.Fprintf(&sb, "  [%d] %s\n", idx, title)
		fmt.Fprintf(&sb, "       %s\n", b.URL)
		if len(b.Tags) > 0 {
			fmt.Fprintf(&sb, "       tags: %s\n", strings.Join(b.Tags, ", "))
		}
		fmt.Fprintf(&sb, "       saved %s\n\n", timeAgo(b.CreatedAt))

		links = append(links, browser.Link{
			Index: idx,
			Text:  title,
			URL:   b.URL,
		})
	}

	return sb.String(), links
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "some time ago"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
