// Package calendar rolls cash-flow dates onto business days using a holiday list that
// is loaded from the store and refreshed daily.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/jmtruffa/finsim/finance"
	"github.com/rickar/cal/v2"
	"github.com/rs/zerolog"
)

// Holiday is a single non-business day.
type Holiday struct {
	Date time.Time
	Name string
}

type HolidaySource interface {
	LoadHolidays(ctx context.Context) ([]Holiday, error)
}

// Roll is a business-day adjustment convention.
type Roll int

const (
	Unadjusted Roll = iota
	Following
	ModifiedFollowing
	Preceding
)

func (r Roll) String() string {
	switch r {
	case Following:
		return "following"
	case ModifiedFollowing:
		return "modified-following"
	case Preceding:
		return "preceding"
	default:
		return "unadjusted"
	}
}

func ParseRoll(s string) (Roll, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "unadjusted":
		return Unadjusted, nil
	case "following", "f":
		return Following, nil
	case "modified-following", "modifiedfollowing", "mf":
		return ModifiedFollowing, nil
	case "preceding", "p":
		return Preceding, nil
	default:
		return Unadjusted, fmt.Errorf("unknown business day convention %q", s)
	}
}

// Calendar is safe for concurrent use. Until the first Reload it only knows weekends.
type Calendar struct {
	mu       sync.RWMutex
	business *cal.BusinessCalendar
	count    int
	source   HolidaySource
}

func New(source HolidaySource) *Calendar {
	return &Calendar{
		business: cal.NewBusinessCalendar(),
		source:   source,
	}
}

// Reload replaces the holiday set with the one currently in the source.
func (c *Calendar) Reload(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	if c.source == nil {
		return nil
	}

	holidays, err := c.source.LoadHolidays(ctx)
	if err != nil {
		return fmt.Errorf("load holidays: %w", err)
	}

	business := cal.NewBusinessCalendar()
	for _, h := range holidays {
		y, m, d := h.Date.Date()
		name := h.Name
		if name == "" {
			name = "Holiday"
		}
		business.AddHoliday(&cal.Holiday{
			Name:      name,
			Type:      cal.ObservancePublic,
			StartYear: y,
			EndYear:   y,
			Month:     m,
			Day:       d,
			Func:      cal.CalcDayOfMonth,
		})
	}

	c.mu.Lock()
	c.business = business
	c.count = len(holidays)
	c.mu.Unlock()

	logger.Info().Int("holidays", len(holidays)).Msg("holidays loaded")
	return nil
}

// ScheduleReload reloads the holidays once a day until ctx is done. The returned channel
// is closed once the scheduler has stopped.
func (c *Calendar) ScheduleReload(ctx context.Context) <-chan struct{} {
	logger := zerolog.Ctx(ctx)
	scheduler := gocron.NewScheduler()
	err := scheduler.Every(1).Day().Do(func() {
		if err := c.Reload(ctx); err != nil {
			logger.Error().Err(err).Msg("holiday reload failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("holiday reload not scheduled")
	}
	stopped := scheduler.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		close(stopped)
		scheduler.Clear()
		logger.Debug().Msg("holiday reload stopped")
	}()
	return done
}

// Holidays is the number of holidays currently loaded.
func (c *Calendar) Holidays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

func (c *Calendar) IsBusinessDay(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.business.IsWorkday(t)
}

// Adjust moves t onto a business day according to roll.
func (c *Calendar) Adjust(t time.Time, roll Roll) time.Time {
	switch roll {
	case Following:
		return c.step(t, 1)
	case Preceding:
		return c.step(t, -1)
	case ModifiedFollowing:
		adjusted := c.step(t, 1)
		if adjusted.Month() != t.Month() {
			return c.step(t, -1)
		}
		return adjusted
	default:
		return t
	}
}

func (c *Calendar) step(t time.Time, days int) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, days)
	}
	return t
}

// AdjustFlows returns a copy of flows with every date rolled onto a business day.
func (c *Calendar) AdjustFlows(flows []finance.DatedCashFlow, roll Roll) []finance.DatedCashFlow {
	adjusted := make([]finance.DatedCashFlow, len(flows))
	for i, cf := range flows {
		adjusted[i] = finance.DatedCashFlow{Date: c.Adjust(cf.Date, roll), Amount: cf.Amount}
	}
	return adjusted
}
