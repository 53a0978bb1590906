package table

import "go.uber.org/zap"

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug events such as chain growth.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
