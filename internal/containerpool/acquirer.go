package containerpool

import (
	"context"
	"fmt"
	"time"

	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/executor"
)

// busyRetryDelay is the back-pressure sleep the caller-visible Get loop
// applies on every Busy outcome, per §4.2.
const busyRetryDelay = 100 * time.Millisecond

// CreateFunc performs the slow, unlocked work of starting a fresh container
// for a cache miss: image pull, process start, and the cold-start Init call.
// It must never itself report Busy; a non-nil error is treated as a terminal
// creation failure.
type CreateFunc func() (container.ContainerID, *executor.RunResult, error)

// Get resolves key against the pool: a cache hit returns the existing idle
// container (unpaused, with a nil RunResult, since a cache hit never re-runs
// init); a cache miss calls create outside the pool lock and registers the
// result. Busy outcomes retry until ctx is done.
func (p *Pool) Get(ctx context.Context, key string, create CreateFunc) (container.ContainerID, *executor.RunResult, error) {
	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		default:
		}

		cid, hit, busy := p.tryAcquireIdle(key)
		if busy {
			time.Sleep(busyRetryDelay)
			continue
		}
		if hit {
			if err := p.backend.Unpause(cid); err != nil {
				return "", nil, fmt.Errorf("failed to unpause container: %w", err)
			}
			return cid, nil, nil
		}

		claimed, busy := p.tryClaimCreation()
		if busy || !claimed {
			time.Sleep(busyRetryDelay)
			continue
		}

		cid, runResult, err := create()
		if err != nil {
			p.releaseCreation()
			return "", nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
		}

		p.poolLock.Lock()
		p.introduce(key, cid)
		p.starting = 0
		p.poolLock.Unlock()
		p.creationSlot.Unlock()

		return cid, runResult, nil
	}
}

// tryAcquireIdle implements the fast path of §4.2 step 1: returns (cid,
// hit=true) on a cache hit (already transitioned to Active under the lock),
// (_, false, busy=true) if the pool is at capacity, or (_, false, false) on
// a clean cache miss.
func (p *Pool) tryAcquireIdle(key string) (container.ContainerID, bool, bool) {
	p.poolLock.Lock()
	defer p.poolLock.Unlock()

	if p.countByState(Active)+p.starting >= p.cfg.MaxActive {
		return "", false, true
	}

	if info := p.findIdle(key); info != nil {
		info.State = Active
		p.idleCount--
		p.activeCount++
		return info.Container, true, false
	}

	return "", false, false
}

// tryClaimCreation implements §4.2 step 3's lock-protected re-check plus the
// non-blocking trylock claim of the single creation slot.
func (p *Pool) tryClaimCreation() (claimed bool, busy bool) {
	p.poolLock.Lock()
	defer p.poolLock.Unlock()

	if p.countByState(Active)+p.starting >= p.cfg.MaxActive {
		return false, true
	}
	if p.starting >= 1 {
		return false, true
	}
	if !p.creationSlot.TryLock() {
		// starting==0 but the slot is held: the previous creator has reset
		// starting and not yet released the slot. Treat exactly like any
		// other contention.
		return false, true
	}

	p.starting = 1
	return true, false
}

func (p *Pool) releaseCreation() {
	p.poolLock.Lock()
	p.starting = 0
	p.poolLock.Unlock()
	p.creationSlot.Unlock()
}
