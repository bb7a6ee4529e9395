package push

import (
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Key identifies at most one subscription per (company, user) pair.
type Key struct {
	CompanyID string
	UserID    string
}

func (k Key) String() string { return k.CompanyID + "-" + k.UserID }

// Record is a registered push subscription plus bookkeeping timestamps.
type Record struct {
	Subscription webpush.Subscription `json:"subscription"`
	UserID       string               `json:"userId"`
	CompanyID    string               `json:"companyId"`
	CreatedAt    time.Time            `json:"createdAt"`
	LastUsed     time.Time            `json:"lastUsed"`
}

// Stats is an aggregate view of the registry.
type Stats struct {
	Total        int            `json:"total"`
	ByCompany    map[string]int `json:"byCompany"`
	RecentlyUsed int            `json:"recentlyUsed"`
}

const recentlyUsedWindow = 24 * time.Hour

// Registry is the in-process subscription store. One process, one
// registry; it is not shared across instances, a known scaling limit of
// the relay.
type Registry struct {
	mu      sync.RWMutex
	records map[Key]Record
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[Key]Record), now: time.Now}
}

// Add stores a subscription, overwriting any existing record for the same
// (company, user) pair. Returns the registry key.
func (r *Registry) Add(userID, companyID string, sub webpush.Subscription) Key {
	key := Key{CompanyID: companyID, UserID: userID}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = Record{
		Subscription: sub,
		UserID:       userID,
		CompanyID:    companyID,
		CreatedAt:    now,
		LastUsed:     now,
	}
	return key
}

// Get returns the record for the pair and stamps its LastUsed timestamp.
func (r *Registry) Get(userID, companyID string) (Record, bool) {
	key := Key{CompanyID: companyID, UserID: userID}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return Record{}, false
	}
	rec.LastUsed = r.now()
	r.records[key] = rec
	return rec, true
}

// GetAllForUser returns a snapshot of every record registered for the
// user, in unspecified order.
func (r *Registry) GetAllForUser(userID string) []Record {
	return r.filter(func(rec Record) bool { return rec.UserID == userID })
}

// GetAllForCompany returns a snapshot of every record registered for the
// company, in unspecified order.
func (r *Registry) GetAllForCompany(companyID string) []Record {
	return r.filter(func(rec Record) bool { return rec.CompanyID == companyID })
}

func (r *Registry) filter(keep func(Record) bool) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Remove deletes the record for the pair, reporting whether one existed.
func (r *Registry) Remove(userID, companyID string) bool {
	key := Key{CompanyID: companyID, UserID: userID}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.records[key]
	delete(r.records, key)
	return existed
}

// RemoveInvalid is Remove under its push-transport name: it is called when
// delivery reports the endpoint gone (404/410).
func (r *Registry) RemoveInvalid(userID, companyID string) bool {
	return r.Remove(userID, companyID)
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.records), ByCompany: make(map[string]int)}
	cutoff := r.now().Add(-recentlyUsedWindow)
	for _, rec := range r.records {
		stats.ByCompany[rec.CompanyID]++
		if rec.LastUsed.After(cutoff) {
			stats.RecentlyUsed++
		}
	}
	return stats
}
