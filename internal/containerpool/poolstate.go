package containerpool

import (
	"container/list"

	"github.com/sunnyhub/openwhisk/internal/container"
)

// The following primitives assume the caller holds p.poolLock. They perform
// no backend I/O.

func (p *Pool) countByState(s State) int {
	if s == Active {
		return p.activeCount
	}
	return p.idleCount
}

// bucket returns the ordered sequence of infos for key, or nil if absent.
func (p *Pool) bucket(key string) *list.List {
	return p.keyMap[key]
}

// findIdle returns the first Idle info in key's bucket, if any.
func (p *Pool) findIdle(key string) *ContainerInfo {
	b := p.bucket(key)
	if b == nil {
		return nil
	}
	for e := b.Front(); e != nil; e = e.Next() {
		info := e.Value.(*ContainerInfo)
		if info.State == Idle {
			return info
		}
	}
	return nil
}

// introduce inserts a fresh Active ContainerInfo into both maps, creating
// the bucket if absent.
func (p *Pool) introduce(key string, cid container.ContainerID) *ContainerInfo {
	info := &ContainerInfo{Key: key, Container: cid, State: Active}

	b, ok := p.keyMap[key]
	if !ok {
		b = list.New()
		p.keyMap[key] = b
	}
	info.elem = b.PushBack(info)

	p.containerMap[cid] = info
	p.activeCount++
	return info
}

// remove deletes info from containerMap and its bucket (dropping the bucket
// if it becomes empty) and decrements the counter for info's current state.
func (p *Pool) remove(info *ContainerInfo) {
	delete(p.containerMap, info.Container)

	if b, ok := p.keyMap[info.Key]; ok {
		b.Remove(info.elem)
		if b.Len() == 0 {
			delete(p.keyMap, info.Key)
		}
	}

	switch info.State {
	case Active:
		p.activeCount--
	case Idle:
		p.idleCount--
	}
}
