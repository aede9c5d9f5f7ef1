package treaccp

import "go.uber.org/zap"

// config collects the constructor-time configuration for Build: which
// Hasher to commit with and which logger to attach. This, rather than a
// config file or flags, is the shape "configuration" takes for a library
// with no network surface.
type config struct {
	hasher Hasher
	logger *zap.Logger
}

func defaultConfig() config {
	return config{
		hasher: SHA256Hasher{},
		logger: zap.NewNop(),
	}
}

// Option configures a Tree or Acc at construction time.
type Option func(*config)

// WithHasher overrides the default SHA256Hasher. Both sides of a proof
// exchange must agree on the hasher bit-exactly, or merkle roots will
// mismatch — this option exists for testing and for hash agility
// research, not for casual use.
func WithHasher(h Hasher) Option {
	return func(c *config) { c.hasher = h }
}

// WithLogger attaches a *zap.Logger for diagnostic logging. The default is
// a no-op logger, matching a library that must stay silent unless a caller
// opts in.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

func applyOptions(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
