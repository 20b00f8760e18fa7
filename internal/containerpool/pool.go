// Package containerpool implements the invoker's container pool: a keyed
// cache of warm containers with at-most-one-in-flight creation per pool,
// bounded active/idle population, and age- and capacity-driven eviction.
package containerpool

import (
	"container/list"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LK4D4/trylock"
	"github.com/sunnyhub/openwhisk/internal/config"
	"github.com/sunnyhub/openwhisk/internal/container"
)

// State is the lifecycle state of a pooled container.
type State int

const (
	Idle State = iota
	Active
)

// Sentinel errors. ErrBusy never escapes the package; everything else does.
var (
	ErrBusy               = errors.New("pool at capacity")
	ErrCreationFailed     = errors.New("container creation failed")
	ErrNotFound           = errors.New("container not registered in the pool")
	ErrInvariantViolation = errors.New("container pool invariant violated")
)

// ContainerInfo is the pool's per-container record.
type ContainerInfo struct {
	Key       string
	Container container.ContainerID
	State     State
	LastUsed  int64 // unix millis, set on Active->Idle transition

	elem *list.Element // the info's position in keyMap[Key]
}

// Config holds the pool's tunables. New clamps MaxActive, MaxIdle and
// GCThreshold to non-negative; Pool has no setters, so the tunables are fixed
// once New returns.
type Config struct {
	MaxActive               int
	MaxIdle                 int
	GCThreshold             time.Duration
	GCInterval              time.Duration
	LogDir                  string
	TeardownDelay           time.Duration
	QuarantineOnInitFailure bool
	ActionNamePrefix        string
	InvokerInstance         string
}

// DefaultConfig returns the pool's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxActive:        4,
		MaxIdle:          10,
		GCThreshold:      600 * time.Second,
		GCInterval:       1 * time.Second,
		LogDir:           "/logs",
		TeardownDelay:    150 * time.Millisecond,
		ActionNamePrefix: "wsk",
	}
}

// ConfigFromViper reads pool tunables from the configuration keys listed in
// internal/config/keys.go, overlaying DefaultConfig.
func ConfigFromViper() Config {
	c := DefaultConfig()
	c.MaxActive = config.GetInt(config.MAX_ACTIVE, c.MaxActive)
	c.MaxIdle = config.GetInt(config.MAX_IDLE, c.MaxIdle)
	c.GCThreshold = time.Duration(config.GetInt(config.GC_THRESHOLD, int(c.GCThreshold.Seconds()))) * time.Second
	c.GCInterval = time.Duration(config.GetFloat(config.GC_INTERVAL, c.GCInterval.Seconds()) * float64(time.Second))
	c.LogDir = config.GetString(config.LOG_DIR, c.LogDir)
	c.TeardownDelay = time.Duration(config.GetInt(config.TEARDOWN_DELAY, int(c.TeardownDelay.Milliseconds()))) * time.Millisecond
	c.QuarantineOnInitFailure = config.GetBool(config.QUARANTINE_ON_INIT_FAILURE, false)
	c.ActionNamePrefix = config.GetString(config.ACTION_NAME_PREFIX, c.ActionNamePrefix)
	c.InvokerInstance = config.GetString(config.INVOKER_INSTANCE, "0")
	return c
}

func (c *Config) clamp() {
	if c.MaxActive < 0 {
		c.MaxActive = 0
	}
	if c.MaxIdle < 0 {
		c.MaxIdle = 0
	}
	if c.GCThreshold < 0 {
		c.GCThreshold = 0
	}
}

// Pool is the invoker's container pool. The zero value is not usable; build
// one with New.
type Pool struct {
	backend container.ContainerBackend
	cfg     Config

	poolLock sync.Mutex
	// containerMap and keyMap are protected by poolLock.
	containerMap map[container.ContainerID]*ContainerInfo
	keyMap       map[string]*list.List

	activeCount int
	idleCount   int
	starting    int

	// creationSlot is the non-blocking single-creation-in-flight claim the
	// teacher uses (via the same library) for its own at-most-one
	// coordination in its peer-registration code; here it guards `starting`.
	creationSlot trylock.Mutex

	gcSync  sync.Mutex
	gcOn    bool
	gcOnMu  sync.Mutex
	gcStop  chan struct{}
	gcTimer *time.Ticker

	seq uint64 // monotonic naming counter, see naming.go

	sweptTotal uint64 // cumulative count of GC-evicted containers, see agegc.go
}

// New builds a Pool backed by the given ContainerBackend, which is the
// pool's only dependency on the external container runtime.
func New(backend container.ContainerBackend, cfg Config) *Pool {
	cfg.clamp()
	return &Pool{
		backend:      backend,
		cfg:          cfg,
		containerMap: make(map[container.ContainerID]*ContainerInfo),
		keyMap:       make(map[string]*list.List),
		gcOn:         true,
	}
}

// Status is a point-in-time snapshot of pool occupancy, used by the /status
// route and the admin CLI.
type Status struct {
	Active      int
	Idle        int
	Starting    int
	MaxActive   int
	MaxIdle     int
	GCThreshold time.Duration
	GCEnabled   bool
	GCSwept     uint64
}

func (p *Pool) Status() Status {
	p.poolLock.Lock()
	defer p.poolLock.Unlock()
	return Status{
		Active:      p.countByState(Active),
		Idle:        p.countByState(Idle),
		Starting:    p.starting,
		MaxActive:   p.cfg.MaxActive,
		MaxIdle:     p.cfg.MaxIdle,
		GCThreshold: p.cfg.GCThreshold,
		GCEnabled:   p.isGCEnabled(),
		GCSwept:     atomic.LoadUint64(&p.sweptTotal),
	}
}

// Shutdown tears down every container in the pool, active or idle. Meant to
// be called once, on process termination.
func (p *Pool) Shutdown() {
	p.StopGC()

	p.poolLock.Lock()
	infos := make([]*ContainerInfo, 0, len(p.containerMap))
	for _, info := range p.containerMap {
		infos = append(infos, info)
	}
	for _, info := range infos {
		p.remove(info)
	}
	p.poolLock.Unlock()

	for _, info := range infos {
		p.teardown(info)
	}
}
