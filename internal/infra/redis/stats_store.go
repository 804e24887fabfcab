package redis

import (
	"context"
	"sort"
	"strconv"

	"fuvest-study-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatsStore keeps per-year answer counters in Redis hashes:
//
//	HINCRBY stats:year:{year} answered 1
//	HINCRBY stats:year:{year} correct|wrong 1
//	SADD stats:years {year}
//
// The counters survive restarts, unlike the in-memory store.
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) Record(ctx context.Context, year int, correct bool) (domain.YearStats, error) {
	key := statsKey(year)
	field := "wrong"
	if correct {
		field = "correct"
	}

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, "answered", 1)
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.SAdd(ctx, yearsSetKey, strconv.Itoa(year))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.YearStats{}, err
	}
	return s.Get(ctx, year)
}

func (s *StatsStore) Get(ctx context.Context, year int) (domain.YearStats, error) {
	fields, err := s.client.HGetAll(ctx, statsKey(year)).Result()
	if err != nil {
		return domain.YearStats{}, err
	}
	return statsFromFields(year, fields), nil
}

func (s *StatsStore) All(ctx context.Context) ([]domain.YearStats, error) {
	members, err := s.client.SMembers(ctx, yearsSetKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.YearStats, 0, len(members))
	for _, member := range members {
		year, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		stats, err := s.Get(ctx, year)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

const yearsSetKey = "stats:years"

func statsKey(year int) string {
	return "stats:year:" + strconv.Itoa(year)
}

func statsFromFields(year int, fields map[string]string) domain.YearStats {
	stats := domain.YearStats{Year: year}
	if v, err := strconv.Atoi(fields["correct"]); err == nil {
		stats.Correct = v
	}
	if v, err := strconv.Atoi(fields["wrong"]); err == nil {
		stats.Wrong = v
	}
	if v, err := strconv.Atoi(fields["answered"]); err == nil {
		stats.Answered = v
	}
	return stats
}
