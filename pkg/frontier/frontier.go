package frontier

import (
	"errors"
	"sync"
)

// PageState tracks a URL through its crawl lifecycle.
type PageState int

const (
	StateDiscovered PageState = iota
	StateQueued
	StateFetching
	StateFetched
	StateFailed
	StateSkipped
)

var stateNames = map[PageState]string{
	StateDiscovered: "discovered",
	StateQueued:     "queued",
	StateFetching:   "fetching",
	StateFetched:    "fetched",
	StateFailed:     "failed",
	StateSkipped:    "skipped",
}

func (s PageState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ErrEmpty is returned by Next when no queued URLs remain.
var ErrEmpty = errors.New("frontier is empty")

// Entry is a queued URL with its link distance from the crawl's base URL.
type Entry struct {
	URL   string
	Depth int
}

// Frontier is a FIFO queue of discovered URLs with per-URL state tracking.
// Each normalized URL is admitted at most once regardless of how many times
// it is discovered.
type Frontier struct {
	mu     sync.Mutex
	queue  []Entry
	states map[string]PageState
	depths map[string]int
}

// New creates an empty Frontier.
func New() *Frontier {
	return &Frontier{
		states: make(map[string]PageState),
		depths: make(map[string]int),
	}
}

// Add queues a normalized URL at the given depth. Returns false if the URL
// was seen before, in any state.
func (f *Frontier) Add(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.states[url]; seen {
		return false
	}
	f.states[url] = StateQueued
	f.depths[url] = depth
	f.queue = append(f.queue, Entry{URL: url, Depth: depth})
	return true
}

// Next pops the oldest queued entry and moves it to StateFetching.
func (f *Frontier) Next() (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Entry{}, ErrEmpty
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	f.states[entry.URL] = StateFetching
	return entry, nil
}

// Len returns the number of entries still waiting to be fetched.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// MarkFetched records a successful fetch.
func (f *Frontier) MarkFetched(url string) {
	f.setState(url, StateFetched)
}

// MarkFailed records a fetch that errored out.
func (f *Frontier) MarkFailed(url string) {
	f.setState(url, StateFailed)
}

// MarkSkipped records a URL that was deliberately not fetched, or whose
// fetched content was discarded.
func (f *Frontier) MarkSkipped(url string) {
	f.setState(url, StateSkipped)
}

func (f *Frontier) setState(url string, s PageState) {
	f.mu.Lock()
	f.states[url] = s
	f.mu.Unlock()
}

// State returns the recorded state for a URL.
func (f *Frontier) State(url string) (PageState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[url]
	return s, ok
}

// Seen reports whether the URL has ever been admitted.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.states[url]
	return ok
}

// Counts returns the number of URLs per state.
func (f *Frontier) Counts() map[PageState]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[PageState]int, len(stateNames))
	for _, s := range f.states {
		counts[s]++
	}
	return counts
}
