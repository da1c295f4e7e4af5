package application

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// warningCache remembers the overlap warnings computed for recent listings.
// Entries are keyed by the listed rows themselves; local mutations also
// empty it.
type warningCache struct {
	mu    sync.Mutex
	clock func() time.Time
	ttl   time.Duration
	limit int
	byKey map[string]cachedWarnings
}

type cachedWarnings struct {
	warnings []ConflictWarning
	expires  time.Time
}

func newWarningCache(ttl time.Duration, limit int, clock func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if limit <= 0 {
		limit = 128
	}
	if clock == nil {
		clock = time.Now
	}
	return &warningCache{clock: clock, ttl: ttl, limit: limit, byKey: make(map[string]cachedWarnings)}
}

// Get returns a copy of the warnings cached under key.
func (c *warningCache) Get(key string) ([]ConflictWarning, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	if c.clock().After(cached.expires) {
		delete(c.byKey, key)
		return nil, false
	}
	return slices.Clone(cached.warnings), true
}

// Store caches a copy of warnings. At capacity the entry closest to expiry
// makes room.
func (c *warningCache) Store(key string, warnings []ConflictWarning) {
	if c == nil {
		return
	}
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	var soonestKey string
	var soonest time.Time
	for k, cached := range c.byKey {
		if now.After(cached.expires) {
			delete(c.byKey, k)
			continue
		}
		if soonestKey == "" || cached.expires.Before(soonest) {
			soonestKey, soonest = k, cached.expires
		}
	}
	if _, replacing := c.byKey[key]; !replacing && len(c.byKey) >= c.limit {
		delete(c.byKey, soonestKey)
	}
	c.byKey[key] = cachedWarnings{warnings: slices.Clone(warnings), expires: now.Add(c.ttl)}
}

// Invalidate drops every entry.
func (c *warningCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	clear(c.byKey)
	c.mu.Unlock()
}

// buildWarningCacheKey identifies a listing by its bounds, the sorted staff
// filter and a digest of the loaded rows. Writes made through any instance
// sharing the store change the digest, so a stale entry is never matched.
func buildWarningCacheKey(filter AppointmentFilter, appointments []Appointment) string {
	var b strings.Builder
	if filter.From != nil {
		b.WriteString(filter.From.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte('|')
	if filter.To != nil {
		b.WriteString(filter.To.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(sortStrings(filter.StaffIDs), ","))
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(digestAppointments(appointments), 16))
	return b.String()
}

// digestAppointments hashes the fields overlap detection reads.
func digestAppointments(appointments []Appointment) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, appointment := range appointments {
		_, _ = h.WriteString(appointment.ID)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(appointment.StaffID)
		_, _ = h.WriteString("\x00")
		binary.LittleEndian.PutUint64(buf[:], uint64(appointment.Start.UnixNano()))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(appointment.DurationMinutes))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func sortStrings(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
