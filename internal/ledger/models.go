package ledger

import "time"

// Entry is one immutable ledger fact: a completed inference pass for one
// identifier and one event class.
type Entry struct {
	Identifier  string
	ClassCode   int
	ProcessedAt time.Time
	Title       string
}

// Snapshot is a point-in-time view of the ledger, keyed by identifier. It is
// built once before reconciliation; appends during the run do not refresh it.
type Snapshot struct {
	classes map[string]map[int]struct{}
	titles  map[string]string
}

// SnapshotOf builds an in-memory snapshot directly from entries, without a
// backing store.
func SnapshotOf(entries ...Entry) *Snapshot {
	s := &Snapshot{
		classes: make(map[string]map[int]struct{}, len(entries)),
		titles:  make(map[string]string),
	}
	for _, entry := range entries {
		set, ok := s.classes[entry.Identifier]
		if !ok {
			set = make(map[int]struct{}, 2)
			s.classes[entry.Identifier] = set
		}
		set[entry.ClassCode] = struct{}{}
		if entry.Title != "" {
			s.titles[entry.Identifier] = entry.Title
		}
	}
	return s
}

// Logged reports whether the identifier has at least one ledger entry.
func (s *Snapshot) Logged(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.classes[id]
	return ok
}

// LoggedFor reports whether the identifier has an entry for the given class.
func (s *Snapshot) LoggedFor(id string, code int) bool {
	if s == nil {
		return false
	}
	set, ok := s.classes[id]
	if !ok {
		return false
	}
	_, ok = set[code]
	return ok
}

// Classes returns the class codes logged for the identifier, in ascending order.
func (s *Snapshot) Classes(id string) []int {
	if s == nil {
		return nil
	}
	set, ok := s.classes[id]
	if !ok {
		return nil
	}
	codes := make([]int, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	for i := 1; i < len(codes); i++ {
		for j := i; j > 0 && codes[j-1] > codes[j]; j-- {
			codes[j-1], codes[j] = codes[j], codes[j-1]
		}
	}
	return codes
}

// Title returns the last recorded title for the identifier, if any.
func (s *Snapshot) Title(id string) string {
	if s == nil {
		return ""
	}
	return s.titles[id]
}

// Count returns the number of distinct logged identifiers.
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.classes)
}
