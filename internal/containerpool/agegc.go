package containerpool

import (
	"log"
	"sync/atomic"
	"time"
)

func (p *Pool) isGCEnabled() bool {
	p.gcOnMu.Lock()
	defer p.gcOnMu.Unlock()
	return p.gcOn
}

// EnableGC turns both age-based and capacity-based eviction back on.
func (p *Pool) EnableGC() {
	p.gcOnMu.Lock()
	p.gcOn = true
	p.gcOnMu.Unlock()
}

// DisableGC turns off age-based and capacity-based eviction; containers
// accumulate without limit until re-enabled.
func (p *Pool) DisableGC() {
	p.gcOnMu.Lock()
	p.gcOn = false
	p.gcOnMu.Unlock()
}

// StartGC launches the periodic sweep goroutine. Safe to call once; a
// second call is a no-op if already running.
func (p *Pool) StartGC() {
	if p.gcStop != nil {
		return
	}
	p.gcStop = make(chan struct{})
	ticker := time.NewTicker(p.cfg.GCInterval)
	p.gcTimer = ticker

	go func() {
		for {
			select {
			case <-ticker.C:
				p.performGC(false)
			case <-p.gcStop:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopGC stops the periodic sweep goroutine, if running.
func (p *Pool) StopGC() {
	if p.gcStop == nil {
		return
	}
	close(p.gcStop)
	p.gcStop = nil
}

// ForceGC runs a synchronous full-idle sweep regardless of age, per §4.4.
func (p *Pool) ForceGC() {
	p.performGC(true)
}

// performGC serializes on gcSync so overlapping sweeps never double-remove
// containers or race the backend. The selection phase holds poolLock; the
// teardown phase runs after it is released.
func (p *Pool) performGC(force bool) {
	p.gcSync.Lock()
	defer p.gcSync.Unlock()

	if !force && !p.isGCEnabled() {
		return
	}

	expiration := time.Now().Add(-p.cfg.GCThreshold).UnixMilli()

	p.poolLock.Lock()
	var sweep []*ContainerInfo
	for _, info := range p.containerMap {
		if info.State != Idle {
			continue
		}
		if force || info.LastUsed <= expiration {
			sweep = append(sweep, info)
		}
	}
	for _, info := range sweep {
		p.remove(info)
	}
	p.poolLock.Unlock()

	for _, info := range sweep {
		p.teardown(info)
	}
	if len(sweep) > 0 {
		atomic.AddUint64(&p.sweptTotal, uint64(len(sweep)))
		log.Printf("containerpool: GC swept %d idle container(s)", len(sweep))
	}
}
