// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "time"

// DefaultTickets is the ticket count a [*Task] receives when its element
// does not request a specific value, see spec.md §4.5.2.
const DefaultTickets = 1024

// MaxTickets is the saturating ceiling for a task's ticket count.
const MaxTickets = 1 << 20

// Stride1 is the numerator used to compute a task's stride from its
// ticket count: stride = Stride1 / tickets. Chosen so that DefaultTickets
// yields a convenient integer stride.
const Stride1 = 1 << 20

// DefaultAnnotationSize is the size in bytes of a packet's scratch
// annotation area, see spec.md §3 ("Packet").
const DefaultAnnotationSize = 48

// Config holds common configuration shared across the lexer, linker,
// router, and scheduler.
//
// Pass this to [Link] and [NewRouter] to pre-wire dependencies. All
// fields have sensible defaults set by [NewConfig]; customize with
// [Option] values.
type Config struct {
	// Logger receives structured lifecycle and scheduling events.
	//
	// Set by [NewConfig] to [NewDiscardLogger].
	Logger SLogger

	// ErrClassifier classifies runtime packet and resource errors
	// (spec.md §7 categories 5-7) for structured logging and counters.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow returns the current time; used by timers and logging.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// Threads is the number of router threads [*Router.Run] starts.
	//
	// Set by [NewConfig] to 1 (single-threaded cooperative mode).
	Threads int

	// DefaultTickets is the ticket count assigned to a [*Task] whose
	// element does not request one explicitly.
	//
	// Set by [NewConfig] to [DefaultTickets].
	DefaultTickets uint32

	// AnnotationSize is the size in bytes of each packet's annotation
	// area.
	//
	// Set by [NewConfig] to [DefaultAnnotationSize].
	AnnotationSize int
}

// Option configures a [*Config] field; see [NewConfig].
type Option func(*Config)

// WithLogger sets the [SLogger] used for structured logging.
func WithLogger(logger SLogger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithErrClassifier sets the [ErrClassifier] used for runtime errors.
func WithErrClassifier(classifier ErrClassifier) Option {
	return func(c *Config) { c.ErrClassifier = classifier }
}

// WithThreads sets the number of router threads. Values less than 1 are
// clamped to 1.
func WithThreads(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.Threads = n
	}
}

// WithDefaultTickets sets the default ticket count for tasks that do not
// request one explicitly.
func WithDefaultTickets(tickets uint32) Option {
	return func(c *Config) { c.DefaultTickets = tickets }
}

// WithAnnotationSize sets the per-packet annotation area size in bytes.
func WithAnnotationSize(n int) Option {
	return func(c *Config) { c.AnnotationSize = n }
}

// NewConfig creates a [*Config] with sensible defaults and applies opts
// in order.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Logger:         NewDiscardLogger(),
		ErrClassifier:  DefaultErrClassifier,
		TimeNow:        time.Now,
		Threads:        1,
		DefaultTickets: DefaultTickets,
		AnnotationSize: DefaultAnnotationSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
