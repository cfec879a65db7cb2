package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SearchDebouncer coalesces rapid search triggers so only the latest query
// is eventually issued against the store. An empty query falls back to a
// full refresh.
type SearchDebouncer struct {
	cache   *CustomerCache
	delay   time.Duration
	timeout time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewSearchDebouncer builds a debouncer issuing queries against c after
// delay of trigger silence.
func NewSearchDebouncer(c *CustomerCache, delay time.Duration) *SearchDebouncer {
	return &SearchDebouncer{cache: c, delay: delay, timeout: defaultSearchTimeout}
}

const defaultSearchTimeout = 15 * time.Second

// Trigger schedules query, cancelling any pending one.
func (d *SearchDebouncer) Trigger(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var err error
		if strings.TrimSpace(query) == "" {
			err = d.cache.Refresh(ctx)
		} else {
			err = d.cache.Search(ctx, query)
		}
		if err != nil {
			logrus.WithError(err).Warn("debounced search failed")
		}
	})
}

// Stop cancels any pending trigger.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
