package app

import (
	"context"
	"log"
	"math/rand"

	"fuvest-study-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// BankRepository loads year banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, year int) (domain.YearBank, error)
}

// Composer builds a mixed-year question list for one exam session.
// Randomness is injected so tests can seed it deterministically.
type Composer struct {
	banks    BankRepository
	rnd      *rand.Rand
	minYears int
	maxYears int
}

func NewComposer(banks BankRepository, rnd *rand.Rand, minYears, maxYears int) *Composer {
	if minYears < 1 {
		minYears = 1
	}
	if maxYears < minYears {
		maxYears = minYears
	}
	return &Composer{banks: banks, rnd: rnd, minYears: minYears, maxYears: maxYears}
}

// Compose selects a random subset of years, spreads total draws across them,
// and returns a shuffled mixed-year question list. The returned list has no
// duplicate question IDs and is at most total long; it is shorter only when
// the selected banks together hold fewer questions than requested.
func (c *Composer) Compose(ctx context.Context, total int, years []int) ([]domain.Question, error) {
	if total <= 0 || len(years) == 0 {
		return nil, domain.ErrNoQuestions
	}

	selected := c.pickYears(years)
	quotas := SpreadQuotas(c.rnd, total, len(selected))

	// Banks are independent; fetch them concurrently. Failures leave a nil
	// slot so a bad year never disturbs another year's draw.
	banks := make([]*domain.YearBank, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for i, year := range selected {
		i, year := i, year
		g.Go(func() error {
			bank, err := c.banks.GetBank(gctx, year)
			if err != nil {
				log.Printf("compose: skipping year %d: %v", year, err)
				return nil
			}
			banks[i] = &bank
			return nil
		})
	}
	_ = g.Wait()

	var combined []domain.Question
	for i, bank := range banks {
		if bank == nil || quotas[i] == 0 {
			continue
		}
		combined = append(combined, c.draw(*bank, quotas[i])...)
	}
	if len(combined) == 0 {
		return nil, domain.ErrNoQuestions
	}

	c.rnd.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
	})
	return combined, nil
}

// pickYears chooses k distinct years uniformly, k uniform in
// [minYears, maxYears] clamped to the pool size.
func (c *Composer) pickYears(years []int) []int {
	k := c.minYears + c.rnd.Intn(c.maxYears-c.minYears+1)
	if k > len(years) {
		k = len(years)
	}
	pool := make([]int, len(years))
	copy(pool, years)
	c.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:k]
}

// SpreadQuotas runs total independent uniform trials over k buckets.
// The quotas always sum to exactly total; individual buckets may be zero
// or exceed a bank's size (clamped later at draw time).
func SpreadQuotas(rnd *rand.Rand, total, k int) []int {
	quotas := make([]int, k)
	for i := 0; i < total; i++ {
		quotas[rnd.Intn(k)]++
	}
	return quotas
}

// draw shuffles a copy of the bank and takes up to quota questions,
// tagging each with its source year.
func (c *Composer) draw(bank domain.YearBank, quota int) []domain.Question {
	questions := make([]domain.Question, len(bank.Questions))
	copy(questions, bank.Questions)
	c.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if quota > len(questions) {
		quota = len(questions)
	}
	picked := questions[:quota]
	for i := range picked {
		picked[i].Year = bank.Year
	}
	return picked
}
