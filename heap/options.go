package heap

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/joshuapare/memmgr/heap/chunk"
	"github.com/joshuapare/memmgr/heap/guard"
)

// DefaultHeapSize is the size of the buffer NewStatic allocates.
const DefaultHeapSize = 64 << 10

// Allocation logging, controlled by the MEMMGR_LOG_ALLOC env var.
var logAlloc = os.Getenv("MEMMGR_LOG_ALLOC") != ""

// SiteFunc captures the call site recorded in the header of a new
// allocation.
type SiteFunc func() uintptr

// Option configures a Heap.
type Option func(*options)

type options struct {
	cfg    chunk.Config
	size   uint32
	logger *slog.Logger
	policy Policy
	mu     guard.Mutex
	site   SiteFunc
	die    chunk.DieFunc
}

func defaultOptions() options {
	return options{
		cfg:    chunk.DefaultConfig(),
		size:   DefaultHeapSize,
		logger: defaultLogger(),
		policy: FirstFit{},
		mu:     guard.NewMutex(),
		site:   callerSite,
	}
}

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithConfig sets the chunk geometry. The default is chunk.DefaultConfig.
func WithConfig(cfg chunk.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithHeapSize sets the buffer size used by NewStatic.
func WithHeapSize(size uint32) Option {
	return func(o *options) { o.size = size }
}

// WithLogger installs a logger. A nil logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = l
	}
}

// WithPolicy replaces the chunk search and restructuring policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithMutex installs the mutex serializing public calls. Passing nil
// disables locking.
func WithMutex(mu guard.Mutex) Option {
	return func(o *options) { o.mu = mu }
}

// WithSiteFunc replaces call-site capture. A nil func records zero.
func WithSiteFunc(fn SiteFunc) Option {
	return func(o *options) {
		if fn == nil {
			fn = func() uintptr { return 0 }
		}
		o.site = fn
	}
}

// WithDie installs the fatal hook. It runs before the corruption panic.
func WithDie(die chunk.DieFunc) Option {
	return func(o *options) { o.die = die }
}

// callerSite returns the program counter of the code that called the
// public heap method.
func callerSite() uintptr {
	var pcs [1]uintptr
	// runtime.Callers, callerSite, the heap method, its caller.
	if runtime.Callers(3, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}
