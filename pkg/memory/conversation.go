package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jg-phare/chatsplit/pkg/chat"
	"github.com/jg-phare/chatsplit/pkg/splitter"
)

// Entry is one appended message with its identity and arrival time.
type Entry struct {
	ID      uuid.UUID
	At      time.Time
	Message chat.Message
}

// Conversation is an append-only message log with an always-current
// trailing window. The window boundary is computed lazily on read and
// cached until the next append, so repeated reads between turns cost no
// estimator calls. Safe for concurrent use.
type Conversation struct {
	splitter *splitter.Splitter

	mu       sync.Mutex
	entries  []Entry
	version  uint64
	cached   splitResult
	cachedAt uint64
	hasCache bool
}

// splitResult is the cached outcome of one boundary computation.
type splitResult struct {
	boundary  int
	remaining int
	satisfied bool
}

// NewConversation creates an empty log windowed by s. It panics if s is
// nil.
func NewConversation(s *splitter.Splitter) *Conversation {
	if s == nil {
		panic("memory: nil splitter")
	}
	return &Conversation{splitter: s}
}

// Append validates msg and adds it to the log, returning the stored
// entry. The cached window boundary is invalidated.
func (c *Conversation) Append(msg chat.Message) (Entry, error) {
	if err := msg.Validate(); err != nil {
		return Entry{}, err
	}
	e := Entry{ID: uuid.New(), At: time.Now(), Message: msg.Clone()}

	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.version++
	c.mu.Unlock()
	return e, nil
}

// Len returns the number of entries in the log.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the whole log in order.
func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.entries)
}

// Messages returns a copy of the whole log as canonical messages.
func (c *Conversation) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]chat.Message, len(c.entries))
	for i, e := range c.entries {
		msgs[i] = e.Message.Clone()
	}
	return msgs
}

// Recent returns the trailing window of the log as canonical messages,
// ready to send to a completion service. The result reflects the log as
// of the call; a concurrent append shows up on the next read.
func (c *Conversation) Recent(ctx context.Context) ([]chat.Message, error) {
	snap, sr, err := c.splitSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, len(snap)-sr.boundary)
	for i, e := range snap[sr.boundary:] {
		msgs[i] = e.Message.Clone()
	}
	return msgs, nil
}

// Split returns the outdated and recent halves of the log as entries.
func (c *Conversation) Split(ctx context.Context) (outdated, recent []Entry, err error) {
	snap, sr, err := c.splitSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cloneEntries(snap[:sr.boundary]), cloneEntries(snap[sr.boundary:]), nil
}

// Window returns the full split over a copy of the log, for callers
// that need the outdated half, the remaining budget, or the flag.
func (c *Conversation) Window(ctx context.Context) (splitter.Split, error) {
	snap, sr, err := c.splitSnapshot(ctx)
	if err != nil {
		return splitter.Split{}, err
	}
	msgs := make([]chat.Message, len(snap))
	for i, e := range snap {
		msgs[i] = e.Message.Clone()
	}
	return splitter.Split{
		Outdated:        msgs[:sr.boundary],
		Recent:          msgs[sr.boundary:],
		Remaining:       sr.remaining,
		BudgetSatisfied: sr.satisfied,
	}, nil
}

// Invalidate drops the cached boundary so the next read recomputes it.
// Call it after tokenizer model definitions change underneath the
// splitter.
func (c *Conversation) Invalidate() {
	c.mu.Lock()
	c.hasCache = false
	c.mu.Unlock()
}

// Clear removes every entry and the cached boundary.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.version++
	c.hasCache = false
	c.mu.Unlock()
}

// splitSnapshot returns a stable view of the log plus the split result
// for it, reusing the cached result when the log has not grown since it
// was computed. The estimator runs outside the lock; a result raced by
// an append is returned but not cached.
func (c *Conversation) splitSnapshot(ctx context.Context) ([]Entry, splitResult, error) {
	c.mu.Lock()
	version := c.version
	snap := c.entries[:len(c.entries):len(c.entries)]
	if c.hasCache && c.cachedAt == version {
		sr := c.cached
		c.mu.Unlock()
		return snap, sr, nil
	}
	c.mu.Unlock()

	msgs := make([]chat.Message, len(snap))
	for i, e := range snap {
		msgs[i] = e.Message
	}
	res, err := c.splitter.Split(ctx, msgs)
	if err != nil {
		return nil, splitResult{}, err
	}
	sr := splitResult{
		boundary:  len(res.Outdated),
		remaining: res.Remaining,
		satisfied: res.BudgetSatisfied,
	}

	c.mu.Lock()
	if c.version == version {
		c.cached, c.cachedAt, c.hasCache = sr, version, true
	}
	c.mu.Unlock()
	return snap, sr, nil
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Message = e.Message.Clone()
		out[i] = e
	}
	return out
}
