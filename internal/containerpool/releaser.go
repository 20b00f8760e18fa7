package containerpool

import (
	"fmt"
	"time"

	"github.com/sunnyhub/openwhisk/internal/container"
)

// PutBack returns an Active container to the pool. If delete is true the
// container is torn down immediately instead of becoming idle. Capacity
// eviction (oldest idle first, across the whole pool) runs before the
// just-returned container is itself marked idle, so a single PutBack never
// evicts itself.
func (p *Pool) PutBack(cid container.ContainerID, delete bool) error {
	p.poolLock.Lock()
	info, ok := p.containerMap[cid]
	if !ok || info.State != Active {
		p.poolLock.Unlock()
		return fmt.Errorf("putBack %s: %w", cid, ErrInvariantViolation)
	}

	var evicted []*ContainerInfo
	if p.isGCEnabled() {
		for p.countByState(Idle) >= p.cfg.MaxIdle {
			oldest := p.oldestIdle()
			if oldest == nil {
				break
			}
			p.remove(oldest)
			evicted = append(evicted, oldest)
		}
	}
	p.poolLock.Unlock()

	if err := p.backend.Pause(cid); err != nil {
		return fmt.Errorf("failed to pause container %s: %w", cid, err)
	}

	var deleted *ContainerInfo
	p.poolLock.Lock()
	info.State = Idle
	info.LastUsed = time.Now().UnixMilli()
	// activeCount/idleCount: this container left Active and entered Idle.
	p.activeCount--
	p.idleCount++
	if delete {
		p.remove(info)
		deleted = info
	}
	p.poolLock.Unlock()

	for _, e := range evicted {
		p.teardown(e)
	}
	if deleted != nil {
		p.teardown(deleted)
	}
	return nil
}

// oldestIdle scans the whole pool (not just one bucket) for the Idle info
// with the smallest LastUsed. Assumes poolLock is held.
func (p *Pool) oldestIdle() *ContainerInfo {
	var oldest *ContainerInfo
	for _, info := range p.containerMap {
		if info.State != Idle {
			continue
		}
		if oldest == nil || info.LastUsed < oldest.LastUsed {
			oldest = info
		}
	}
	return oldest
}
