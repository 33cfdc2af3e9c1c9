package precompute

import (
	"context"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/logger"
)

const (
	warmDays = 4

	// Pause between engine calls so the warm-up never starves live
	// traffic, with a longer breather every third call.
	callPause     = 2 * time.Second
	breatherEvery = 3
	breatherPause = 5 * time.Second
)

// warmHours is the order in which hours of the day get warmed: the most
// requested afternoon hours first.
var warmHours = []int{17, 13, 12, 14, 16, 18, 15}

type Recommender interface {
	GetLocationRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error)
	GetAllActivities(ctx context.Context) ([]domain.Activity, error)
}

type ResponseCache interface {
	Key(activity string, dateTime time.Time, zone string) string
	Set(ctx context.Context, key string, resp *domain.RecommendationResponse) error
}

// Job warms the response cache for the next few days of popular request
// shapes. It runs in the background and keeps going past individual
// failures: one bad combination must not abort the rest of the sweep.
type Job struct {
	recommender Recommender
	cache       ResponseCache
	now         func() time.Time
	sleep       func(time.Duration)
}

func NewJob(recommender Recommender, cache ResponseCache) *Job {
	return &Job{
		recommender: recommender,
		cache:       cache,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Run sweeps warmDays days of warmHours slots for every known activity.
// Slots already in the past are skipped.
func (j *Job) Run(ctx context.Context) {
	start := j.now()
	logger.Info("cache warm-up started")

	activities, err := j.recommender.GetAllActivities(ctx)
	if err != nil {
		logger.Error("cache warm-up aborted, cannot list activities", "error", err)
		return
	}

	var warmed, skipped, failed int
	calls := 0
	for day := 0; day < warmDays; day++ {
		date := start.AddDate(0, 0, day)
		for _, activity := range activities {
			for _, hour := range warmHours {
				if ctx.Err() != nil {
					logger.Warn("cache warm-up cancelled", "warmed", warmed)
					return
				}

				slot := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
				if slot.Before(start) {
					skipped++
					continue
				}

				if err := j.warmSlot(ctx, activity.Name, slot); err != nil {
					failed++
					logger.Warn("cache warm-up slot failed",
						"activity", activity.Name, "slot", slot, "error", err)
				} else {
					warmed++
				}

				calls++
				j.sleep(callPause)
				if calls%breatherEvery == 0 {
					j.sleep(breatherPause)
				}
			}
		}
	}

	logger.Info("cache warm-up finished",
		"warmed", warmed, "skipped", skipped, "failed", failed,
		"took", time.Since(start).String())
}

func (j *Job) warmSlot(ctx context.Context, activity string, slot time.Time) error {
	req := domain.RecommendationRequest{
		Activity: activity,
		DateTime: slot,
	}

	resp, err := j.recommender.GetLocationRecommendations(ctx, req)
	if err != nil {
		return err
	}

	return j.cache.Set(ctx, j.cache.Key(activity, slot, ""), resp)
}
