package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches a year's question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, year int) (domain.YearBank, error)
}

// BankRepository caches whole year banks in Redis as JSON and falls back to
// a loader on cache miss. Exam composition needs complete question records,
// so the full bank is stored: SET bank:{year} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    app.NewRand(time.Now().UnixNano()),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, year int) (domain.YearBank, error) {
	key := r.bankKey(year)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		var bank domain.YearBank
		if err := json.Unmarshal(raw, &bank); err == nil {
			return bank, nil
		}
		// Corrupt cache entry; fall through to reload.
	}

	result, err, _ := r.sf.Do(strconv.Itoa(year), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var bank domain.YearBank
			if err := json.Unmarshal(raw, &bank); err == nil {
				return bank, nil
			}
		}

		bank, err := r.loader.LoadBank(ctx, year)
		if err != nil {
			return domain.YearBank{}, err
		}

		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.YearBank{}, err
	}
	return result.(domain.YearBank), nil
}

func (r *BankRepository) bankKey(year int) string {
	return "bank:" + strconv.Itoa(year)
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
