package domain

import "time"

const MaxEventHistory = 200

type EventHistoryItem struct {
	Timestamp time.Time
	AgentID   AgentID
	AgentName string
	Stream    Stream
	Summary   string
	Seq       int64
}

// EventHistory is an append-only log holding the most recent MaxEventHistory
// items, oldest first.
type EventHistory struct {
	items []EventHistoryItem
}

func (h *EventHistory) Push(item EventHistoryItem) {
	h.items = append(h.items, item)
	if overflow := len(h.items) - MaxEventHistory; overflow > 0 {
		h.items = append(h.items[:0:0], h.items[overflow:]...)
	}
}

func (h *EventHistory) Len() int {
	return len(h.items)
}

func (h *EventHistory) Items() []EventHistoryItem {
	return append([]EventHistoryItem(nil), h.items...)
}

func (h *EventHistory) Reset() {
	h.items = nil
}

// CountSince counts items of the given stream at or after since.
func (h *EventHistory) CountSince(stream Stream, since time.Time) int {
	count := 0
	for _, item := range h.items {
		if item.Stream == stream && !item.Timestamp.Before(since) {
			count++
		}
	}
	return count
}
