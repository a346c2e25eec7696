package labs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/store/kv"
)

var errNoStore = errors.New("no durable store configured")

// Store is the single owner of lab state.
type Store struct {
	mu    sync.RWMutex
	labs  map[string]*Lab
	order []string // insertion order of the current set
	// colors holds every color set since startup. ReplaceAll applies it under
	// the swap lock so a SetColor racing a reload is not lost.
	colors map[string]Color

	kv       kv.Store
	log      logger.Logger
	keyLocks sync.Map // id -> *sync.Mutex, serializes Persist per key
}

// NewStore creates an empty store persisting patches into kv.
func NewStore(kvs kv.Store, log logger.Logger) *Store {
	return &Store{
		labs:   make(map[string]*Lab),
		colors: make(map[string]Color),
		kv:     kvs,
		log:    log,
	}
}

// ReplaceAll swaps the whole collection. Notified is reset on every record and
// persisted colors are restored so answered labs stay answered after a reload.
// Colors set in this process take precedence over persisted ones.
// Duplicate ids keep the first occurrence.
func (s *Store) ReplaceAll(ctx context.Context, labs []Lab) {
	next := make(map[string]*Lab, len(labs))
	order := make([]string, 0, len(labs))

	for i := range labs {
		lab := labs[i]
		if _, dup := next[lab.ID]; dup {
			s.log.Warn(ctx, "duplicate lab id dropped", "lab_id", lab.ID)
			continue
		}
		lab.Notified = false
		lab.Distance = math.Max(0, lab.Distance)
		if p, ok := s.LoadPatch(ctx, lab.ID); ok && p.Color != ColorNone {
			lab.Color = p.Color
		}
		next[lab.ID] = &lab
		order = append(order, lab.ID)
	}

	s.mu.Lock()
	for id, c := range s.colors {
		if lab, ok := next[id]; ok {
			lab.Color = c
		}
	}
	s.labs = next
	s.order = order
	s.mu.Unlock()
}

// RecomputeDistances updates every lab's distance from pos.
func (s *Store) RecomputeDistances(pos geo.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lab := range s.labs {
		d := geo.HaversineMeters(pos.Latitude, pos.Longitude, lab.Latitude, lab.Longitude)
		if d < 0 || math.IsNaN(d) {
			d = 0
		}
		lab.Distance = d
	}
}

// SetColor sets a lab's color and reports whether the lab is in the current
// set. Unknown ids are logged; the color still applies if a later reload
// brings the lab in.
func (s *Store) SetColor(ctx context.Context, id string, c Color) bool {
	s.mu.Lock()
	s.colors[id] = c
	lab, ok := s.labs[id]
	if ok {
		lab.Color = c
	}
	s.mu.Unlock()

	if !ok {
		s.log.Warn(ctx, "set color on unknown lab", "lab_id", id, "color", c.String())
	}
	return ok
}

// MarkNotified sets Notified on the lab. Idempotent.
func (s *Store) MarkNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lab, ok := s.labs[id]
	if ok {
		lab.Notified = true
	}
	return ok
}

// ClaimCandidates marks and returns every lab within radius that is not
// yellow and not yet notified. Marking happens under the same lock as the
// selection, so concurrent scans never claim the same lab twice.
func (s *Store) ClaimCandidates(radius float64) []Lab {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Lab
	for _, id := range s.order {
		lab := s.labs[id]
		if isCandidate(lab, radius) {
			lab.Notified = true
			out = append(out, *lab)
		}
	}
	return out
}

// Candidates returns the labs ClaimCandidates would claim, without marking.
func (s *Store) Candidates(radius float64) []Lab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Lab
	for _, id := range s.order {
		if lab := s.labs[id]; isCandidate(lab, radius) {
			out = append(out, *lab)
		}
	}
	return out
}

func isCandidate(lab *Lab, radius float64) bool {
	return lab.Distance < radius && lab.Color != ColorYellow && !lab.Notified
}

// ResetOutside clears Notified on labs that have left the radius, ending
// their approach episode. Returns the number of labs reset.
func (s *Store) ResetOutside(radius float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, lab := range s.labs {
		if lab.Notified && lab.Distance >= radius {
			lab.Notified = false
			count++
		}
	}
	return count
}

// Persist merges patch into the durable record for id. Writes to the same id
// are serialized; different ids proceed independently.
func (s *Store) Persist(ctx context.Context, id string, patch Patch) error {
	key := patchKey(id)
	mu, _ := s.keyLocks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	current, _ := s.LoadPatch(ctx, id)
	if patch.Color != ColorNone {
		current.Color = patch.Color
	}

	b, err := json.Marshal(current)
	if err != nil {
		return s.persistFailed(ctx, key, err)
	}
	if s.kv == nil {
		return s.persistFailed(ctx, key, errNoStore)
	}
	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		return s.persistFailed(ctx, key, err)
	}
	return nil
}

func (s *Store) persistFailed(ctx context.Context, key string, err error) error {
	perr := &PersistenceError{Key: key, Err: err}
	s.log.Error(ctx, "persist lab patch", perr)
	return perr
}

// LoadPatch reads the persisted patch for id. Read failures are logged and
// reported as absent.
func (s *Store) LoadPatch(ctx context.Context, id string) (Patch, bool) {
	var p Patch
	if s.kv == nil {
		return p, false
	}

	raw, ok, err := s.kv.Get(ctx, patchKey(id))
	if err != nil {
		s.log.Error(ctx, "load lab patch", &PersistenceError{Key: patchKey(id), Err: err})
		return p, false
	}
	if !ok {
		return p, false
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.Error(ctx, "decode lab patch", &PersistenceError{Key: patchKey(id), Err: err})
		return Patch{}, false
	}
	p.Color = ParseColor(string(p.Color))
	return p, true
}

// Get returns a copy of the lab with id.
func (s *Store) Get(id string) (Lab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lab, ok := s.labs[id]
	if !ok {
		return Lab{}, false
	}
	return *lab, true
}

// Snapshot returns copies of all labs sorted by distance (nearest first).
func (s *Store) Snapshot() []Lab {
	s.mu.RLock()
	result := make([]Lab, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.labs[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})
	return result
}

// Len returns the number of labs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labs)
}

// CountByColor returns counts per color.
func (s *Store) CountByColor() map[Color]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Color]int)
	for _, lab := range s.labs {
		counts[lab.Color]++
	}
	return counts
}
