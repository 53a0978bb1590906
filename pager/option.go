package pager

import "go.uber.org/zap"

type settings struct {
	log *zap.Logger
}

// Option configures a Pager or a Cache.
type Option func(*settings)

// WithLogger sets the logger used for debug events.
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
