// Package cache is the read-through store for parsed event sets and
// session indexes. Entries expire after a TTL and are additionally
// validated against the fingerprints of the files they were computed
// from, so a changed log file invalidates before the TTL runs out.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// DefaultTTL bounds staleness for unchanged files.
const DefaultTTL = 120 * time.Second

type MissReason int

const (
	MissReasonNone MissReason = iota
	MissReasonNotFound
	MissReasonExpired
	MissReasonFileChanged
	MissReasonFileError
)

func (r MissReason) String() string {
	switch r {
	case MissReasonNone:
		return "hit"
	case MissReasonNotFound:
		return "not-found"
	case MissReasonExpired:
		return "expired"
	case MissReasonFileChanged:
		return "file-changed"
	case MissReasonFileError:
		return "file-error"
	}
	return "unknown"
}

// FileStamp is the identity of one source file at the time an entry
// was stored.
type FileStamp struct {
	Path    string
	ModTime int64
	Size    int64
	Inode   uint64
}

// StampFile captures the current identity of a file.
func StampFile(path string) (FileStamp, error) {
	info, err := util.GetFileInfo(path)
	if err != nil {
		return FileStamp{}, err
	}
	return FileStamp{Path: path, ModTime: info.ModTime, Size: info.Size, Inode: info.Inode}, nil
}

type entry struct {
	events    []model.Event
	summaries []model.SessionSummary
	stamps    []FileStamp
	storedAt  time.Time
}

// Stats counts cache outcomes since process start.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Store is the in-memory TTL cache. Keys follow the
// "events:<root>:<source>:<session>" and "sessions:<root>" convention,
// so watcher invalidation can address everything under a root with a
// prefix.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	stats   Stats
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// EventsKey builds the cache key for one session's event set.
func EventsKey(root string, src model.Source, sessionID string) string {
	return fmt.Sprintf("events:%s:%s:%s", root, src, sessionID)
}

// SummariesKey builds the cache key for a root's session index.
func SummariesKey(root string) string {
	return fmt.Sprintf("sessions:%s", root)
}

// GetEvents returns a stored event set, or the reason it is not
// usable.
func (s *Store) GetEvents(key string) ([]model.Event, MissReason) {
	e, reason := s.lookup(key)
	if reason != MissReasonNone {
		return nil, reason
	}
	return e.events, MissReasonNone
}

// PutEvents stores a session's event set together with the stamps of
// the files it was parsed from.
func (s *Store) PutEvents(key string, events []model.Event, stamps []FileStamp) {
	s.put(key, &entry{events: events, stamps: stamps, storedAt: time.Now()})
}

// GetSummaries returns a stored session index, or the reason it is not
// usable.
func (s *Store) GetSummaries(key string) ([]model.SessionSummary, MissReason) {
	e, reason := s.lookup(key)
	if reason != MissReasonNone {
		return nil, reason
	}
	return e.summaries, MissReasonNone
}

// PutSummaries stores a root's session index.
func (s *Store) PutSummaries(key string, summaries []model.SessionSummary, stamps []FileStamp) {
	s.put(key, &entry{summaries: summaries, stamps: stamps, storedAt: time.Now()})
}

// Invalidate drops every entry whose key starts with prefix and
// returns how many were dropped. An empty prefix drops everything.
func (s *Store) Invalidate(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			dropped++
		}
	}
	s.stats.Evictions += int64(dropped)
	if dropped > 0 {
		util.LogDebug(fmt.Sprintf("Cache invalidated %d entries with prefix %q", dropped, prefix))
	}
	return dropped
}

// Stats returns a snapshot of the hit/miss counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) put(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
}

func (s *Store) lookup(key string) (*entry, MissReason) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	reason := MissReasonNone
	switch {
	case !ok:
		reason = MissReasonNotFound
	case time.Since(e.storedAt) > s.ttl:
		reason = MissReasonExpired
	default:
		reason = validateStamps(e.stamps)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if reason == MissReasonNone {
		s.stats.Hits++
		return e, MissReasonNone
	}
	s.stats.Misses++
	if ok {
		delete(s.entries, key)
		s.stats.Evictions++
	}
	return nil, reason
}

// validateStamps reports whether every stamped file still looks the
// same. A vanished file counts as changed: the cached view no longer
// reflects the disk.
func validateStamps(stamps []FileStamp) MissReason {
	for _, stamp := range stamps {
		info, err := util.GetFileInfo(stamp.Path)
		if err != nil {
			return MissReasonFileChanged
		}
		if info.Inode != stamp.Inode || info.Size != stamp.Size || info.ModTime != stamp.ModTime {
			util.LogDebug(fmt.Sprintf("Cache invalidated for %s: file changed", stamp.Path))
			return MissReasonFileChanged
		}
	}
	return MissReasonNone
}
