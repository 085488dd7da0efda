package browser

// HistoryEntry is one user-initiated navigation that produced content.
type HistoryEntry struct {
	URL   string
	Title string // empty when the page had no <title>
}

// History manages a back/forward navigation stack.
type History struct {
	entries []HistoryEntry
	pos     int // -1 iff empty
}

// NewHistory creates an empty navigation history.
func NewHistory() *History {
	return &History{
		entries: nil,
		pos:     -1,
	}
}

// Push adds a new entry, truncating any forward entries.
func (h *History) Push(e HistoryEntry) {
	// If we're not at the end, truncate forward history.
	if h.pos < len(h.entries)-1 {
		h.entries = h.entries[:h.pos+1]
	}
	h.entries = append(h.entries, e)
	h.pos = len(h.entries) - 1
}

// Back moves one step back in history. Returns the entry and true if possible.
func (h *History) Back() (HistoryEntry, bool) {
	if h.pos <= 0 {
		return HistoryEntry{}, false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one step forward in history. Returns the entry and true if possible.
func (h *History) Forward() (HistoryEntry, bool) {
	if h.pos >= len(h.entries)-1 {
		return HistoryEntry{}, false
	}
	h.pos++
	return h.entries[h.pos], true
}

// CanGoBack reports whether there is a previous entry.
func (h *History) CanGoBack() bool {
	return h.pos > 0
}

// CanGoForward reports whether there is a next entry.
func (h *History) CanGoForward() bool {
	return h.pos < len(h.entries)-1
}

// Cursor returns the index of the current entry, or -1 when empty.
func (h *History) Cursor() int {
	return h.pos
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
