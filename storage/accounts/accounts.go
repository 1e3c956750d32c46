package accounts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/storage"
	"github.com/shopspring/decimal"
)

var _ storage.Accounts = (*Store)(nil)

type record struct {
	lock     sync.Mutex      // guards balance and currency
	id       int             // immutable
	balance  decimal.Decimal // never negative
	currency string          // upper-case currency code
}

func (r *record) snapshot() model.Snapshot {
	return model.Snapshot{ID: r.id, Balance: r.balance, Currency: r.currency}
}

// Store owns account records. Every record is locked on its own;
// the store lock only guards the id lookup.
type Store struct {
	lock    sync.RWMutex    // rw lock guards records map
	records map[int]*record // lookup by account id
	rates   storage.Rates   // rate table used by Exchange
}

func New(rates storage.Rates) *Store {
	return &Store{
		records: make(map[int]*record),
		rates:   rates,
	}
}

// Register implements storage.Accounts.
func (s *Store) Register(id int, balance decimal.Decimal, currency string) error {
	if balance.IsNegative() {
		return fmt.Errorf("initial balance %s: %w", balance, model.ErrInvalidAmount)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.records[id]; ok {
		return fmt.Errorf("account #%d: %w", id, model.ErrAccountExists)
	}

	s.records[id] = &record{
		id:       id,
		balance:  balance,
		currency: normalize(currency),
	}

	return nil
}

// Get implements storage.Accounts.
func (s *Store) Get(id int) (model.Snapshot, error) {
	r, err := s.find(id)
	if err != nil {
		return model.Snapshot{}, err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	return r.snapshot(), nil
}

// Deposit implements storage.Accounts.
func (s *Store) Deposit(id int, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("deposit %s: %w", amount, model.ErrInvalidAmount)
	}

	r, err := s.find(id)
	if err != nil {
		return err
	}

	r.lock.Lock()
	r.balance = r.balance.Add(amount)
	r.lock.Unlock()

	return nil
}

// Withdraw implements storage.Accounts.
func (s *Store) Withdraw(id int, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("withdraw %s: %w", amount, model.ErrInvalidAmount)
	}

	r, err := s.find(id)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.balance.LessThan(amount) {
		return fmt.Errorf("account #%d has %s, asked %s: %w", id, r.balance, amount, model.ErrInsufficientFunds)
	}

	r.balance = r.balance.Sub(amount)
	return nil
}

// Transfer implements storage.Accounts.
// Both records are locked in ascending id order so that two transfers
// running in opposite directions over the same pair cannot deadlock.
func (s *Store) Transfer(fromID, toID int, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("transfer %s: %w", amount, model.ErrInvalidAmount)
	}
	if fromID == toID {
		return fmt.Errorf("account #%d: %w", fromID, model.ErrSelfTransfer)
	}

	from, err := s.find(fromID)
	if err != nil {
		return err
	}

	to, err := s.find(toID)
	if err != nil {
		return err
	}

	first, second := from, to
	if second.id < first.id {
		first, second = second, first
	}

	first.lock.Lock()
	defer first.lock.Unlock()
	second.lock.Lock()
	defer second.lock.Unlock()

	if from.balance.LessThan(amount) {
		return fmt.Errorf("account #%d has %s, asked %s: %w", fromID, from.balance, amount, model.ErrInsufficientFunds)
	}

	from.balance = from.balance.Sub(amount)
	to.balance = to.balance.Add(amount)

	return nil
}

// Exchange implements storage.Accounts.
// Currency, funds and both rates are checked before anything is written.
func (s *Store) Exchange(id int, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("exchange %s: %w", amount, model.ErrInvalidAmount)
	}

	r, err := s.find(id)
	if err != nil {
		return err
	}

	from = normalize(from)
	to = normalize(to)

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.currency != from {
		return fmt.Errorf("account #%d holds %s, exchange from %s: %w", id, r.currency, from, model.ErrCurrencyMismatch)
	}

	if r.balance.LessThan(amount) {
		return fmt.Errorf("account #%d has %s, asked %s: %w", id, r.balance, amount, model.ErrInsufficientFunds)
	}

	rateFrom, okFrom := s.rates.Get(from)
	rateTo, okTo := s.rates.Get(to)
	if !okFrom || !okTo || rateFrom <= 0 {
		return fmt.Errorf("pair %s/%s: %w", from, to, model.ErrUnknownCurrency)
	}

	if from == to {
		return nil
	}

	amountInBase := amount.Div(decimal.NewFromFloat(rateFrom))
	converted := amountInBase.Mul(decimal.NewFromFloat(rateTo))

	r.balance = r.balance.Sub(amount).Add(converted)
	r.currency = to

	return nil
}

// IDs returns registered account ids in ascending order
func (s *Store) IDs() []int {
	s.lock.RLock()
	ids := make([]int, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.lock.RUnlock()

	sort.Ints(ids)
	return ids
}

// Snapshots returns a snapshot of every account.
// Records are read one at a time, not as a unit.
func (s *Store) Snapshots() []model.Snapshot {
	ids := s.IDs()
	result := make([]model.Snapshot, 0, len(ids))

	for _, id := range ids {
		if snap, err := s.Get(id); err == nil {
			result = append(result, snap)
		}
	}

	return result
}

// Total sums the balances of all accounts regardless of currency
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, snap := range s.Snapshots() {
		total = total.Add(snap.Balance)
	}
	return total
}

func (s *Store) find(id int) (*record, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("account #%d: %w", id, model.ErrNotFound)
	}

	return r, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
