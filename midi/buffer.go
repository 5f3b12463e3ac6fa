package midi

import "sort"

// Buffer keeps events sorted by timestamp. Events with equal timestamps
// keep the order they were added in.
type Buffer struct {
	events []Event
}

// add inserts event and returns its index.
func (b *Buffer) add(e Event) int {
	i := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp > e.Timestamp
	})
	b.events = append(b.events, Event{})
	copy(b.events[i+1:], b.events[i:])
	b.events[i] = e
	return i
}

// Len returns number of events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Events returns a copy of buffered events.
func (b *Buffer) Events() []Event {
	return append(make([]Event, 0, len(b.events)), b.events...)
}

func (b *Buffer) clear() {
	b.events = nil
}

// Cursor reads buffer forward. It's a value and doesn't hold a reference
// to the buffer.
type Cursor struct {
	index   int
	pending Event
	hasMore bool
}

// Reset rewinds cursor to the start of the buffer.
func (c *Cursor) Reset(b *Buffer) {
	c.index = 0
	c.refresh(b)
}

// Pending returns next event to be read.
func (c Cursor) Pending() (Event, bool) {
	return c.pending, c.hasMore
}

// Position returns index of pending event.
func (c Cursor) Position() int {
	return c.index
}

// Advance moves cursor to the next event.
func (c *Cursor) Advance(b *Buffer) {
	if !c.hasMore {
		return
	}
	c.index++
	c.refresh(b)
}

// inserted keeps cursor consistent after event was added at index i.
// Events inserted behind the cursor are never read.
func (c *Cursor) inserted(b *Buffer, i int) {
	if i < c.index {
		c.index++
	}
	c.refresh(b)
}

func (c *Cursor) refresh(b *Buffer) {
	c.hasMore = c.index < len(b.events)
	if c.hasMore {
		c.pending = b.events[c.index]
	} else {
		c.pending = Event{}
	}
}
