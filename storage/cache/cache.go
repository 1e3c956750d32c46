package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/storage"
	"github.com/rs/zerolog/log"
)

var _ storage.Rates = (*RateTable)(nil)

type entry struct {
	lock sync.Mutex // guards rate
	rate float64    // units of the currency per one unit of base
}

// RateTable keeps one lockable entry per currency.
// The base currency is pinned at 1.0.
type RateTable struct {
	lock    sync.RWMutex      // rw lock guards the entries map, not the entries
	entries map[string]*entry // lookup by upper-case currency code
	base    string            // base currency code
}

func New(base string) *RateTable {
	base = normalize(base)
	if base == "" {
		base = model.DefaultBase
	}

	return &RateTable{
		entries: map[string]*entry{base: {rate: 1.0}},
		base:    base,
	}
}

// Seed adds or overwrites the given entries.
// Non-positive rates are skipped and the base stays at 1.0.
func (t *RateTable) Seed(entries []model.RateEntry) {
	for _, e := range entries {
		if err := t.Set(e.Currency, e.Rate); err != nil {
			log.Warn().Err(err).Str("currency", e.Currency).Msg("skipping seed rate")
		}
	}
}

// Set stores rate for code, creating the entry if needed
func (t *RateTable) Set(code string, rate float64) error {
	code = normalize(code)
	if code == "" {
		return fmt.Errorf("empty currency code: %w", model.ErrUnknownCurrency)
	}
	if rate <= 0 {
		return fmt.Errorf("invalid rate %f for %s", rate, code)
	}
	if code == t.base {
		return nil
	}

	t.lock.RLock()
	e, ok := t.entries[code]
	t.lock.RUnlock()

	if !ok {
		t.lock.Lock()
		if e, ok = t.entries[code]; !ok {
			e = &entry{}
			t.entries[code] = e
		}
		t.lock.Unlock()
	}

	e.lock.Lock()
	e.rate = rate
	e.lock.Unlock()

	return nil
}

// Get implements storage.Rates.
func (t *RateTable) Get(code string) (float64, bool) {
	e, ok := t.lookup(code)
	if !ok {
		return 0, false
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	return e.rate, true
}

// Update implements storage.Rates.
// The base entry is never updated.
func (t *RateTable) Update(code string, fn func(float64) float64) bool {
	code = normalize(code)
	if code == t.base {
		return false
	}

	e, ok := t.lookup(code)
	if !ok {
		return false
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if next := fn(e.rate); next > 0 {
		e.rate = next
	}

	return true
}

// Snapshot implements storage.Rates.
func (t *RateTable) Snapshot() []model.RateEntry {
	codes := t.Currencies()
	result := make([]model.RateEntry, 0, len(codes))

	for _, code := range codes {
		if rate, ok := t.Get(code); ok {
			result = append(result, model.RateEntry{Currency: code, Rate: rate})
		}
	}

	return result
}

// Base implements storage.Rates.
func (t *RateTable) Base() string {
	return t.base
}

// Currencies returns all known codes in ascending order
func (t *RateTable) Currencies() []string {
	t.lock.RLock()
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	t.lock.RUnlock()

	sort.Strings(codes)
	return codes
}

// Pair returns the cross rate for from/to derived
// through the base currency
func (t *RateTable) Pair(from, to string) (model.ExchangeRate, error) {
	from = normalize(from)
	to = normalize(to)

	rateFrom, ok := t.Get(from)
	if !ok {
		return model.ExchangeRate{}, fmt.Errorf("invalid conversion for pair %s/%s: %w", from, to, model.ErrUnknownCurrency)
	}

	rateTo, ok := t.Get(to)
	if !ok {
		return model.ExchangeRate{}, fmt.Errorf("invalid conversion for pair %s/%s: %w", from, to, model.ErrUnknownCurrency)
	}

	return model.ExchangeRate{
		Base:   from,
		Target: to,
		Rate:   rateTo / rateFrom,
	}, nil
}

func (t *RateTable) lookup(code string) (*entry, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	e, ok := t.entries[normalize(code)]
	return e, ok
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
