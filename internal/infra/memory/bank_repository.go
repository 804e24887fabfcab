package memory

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches a year's question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, year int) (domain.YearBank, error)
}

// BankRepository caches year banks with TTL to avoid repeated store hits.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedBank
}

type cachedBank struct {
	bank      domain.YearBank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    app.NewRand(time.Now().UnixNano()),
		cache:  make(map[int]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, year int) (domain.YearBank, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[year]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.bank, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(strconv.Itoa(year), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[year]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.bank, nil
		}
		r.mu.RUnlock()

		bank, err := r.loader.LoadBank(ctx, year)
		if err != nil {
			return domain.YearBank{}, err
		}

		r.mu.Lock()
		r.cache[year] = cachedBank{
			bank:      bank,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.YearBank{}, err
	}
	return result.(domain.YearBank), nil
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[int]domain.YearBank
}

func NewStaticBankLoader(banks map[int]domain.YearBank) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, year int) (domain.YearBank, error) {
	if bank, ok := l.banks[year]; ok {
		return bank, nil
	}
	return domain.YearBank{}, domain.ErrBankNotFound
}

// Years lists the years the loader holds, ascending.
func (l *StaticBankLoader) Years() []int {
	years := make([]int, 0, len(l.banks))
	for year := range l.banks {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
