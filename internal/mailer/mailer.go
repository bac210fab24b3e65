// Package mailer reports newsletter delivery statistics. No mail service is
// integrated yet; Static returns fixed campaign rates.
package mailer

import "context"

// Stats are campaign engagement rates in percent.
type Stats struct {
	OpenRate  float64
	ClickRate float64
}

// StatsProvider reports delivery statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// DefaultStats are the rates reported until a mail service is connected.
var DefaultStats = Stats{OpenRate: 42.3, ClickRate: 8.7}

// Static always reports the same statistics.
type Static struct {
	stats Stats
}

func NewStatic(stats Stats) *Static {
	return &Static{stats: stats}
}

func (s *Static) Stats(context.Context) (Stats, error) {
	return s.stats, nil
}
