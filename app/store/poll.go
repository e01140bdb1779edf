package store

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Poller is implemented by backends whose live queries only see writes made
// in this process and need a periodic re-query to catch everything else.
type Poller interface {
	Poll()
}

// StartPolling schedules p.Poll on a cron spec such as "@every 10s". The
// returned scheduler must be stopped on shutdown.
func StartPolling(schedule string, p Poller) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, p.Poll); err != nil {
		return nil, fmt.Errorf("error scheduling poll %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("Polling subscribed scopes on schedule %q", schedule)
	return c, nil
}
