package progress

import (
	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/stats"
)

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (p *quietPresenter) Run(events <-chan event.Event) error {
	for range events {
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
