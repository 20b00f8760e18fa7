package containerpool

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// teardown is best-effort: a failure at any step is logged but never
// aborts the caller's sweep or putBack.
func (p *Pool) teardown(info *ContainerInfo) {
	if p.cfg.TeardownDelay > 0 {
		time.Sleep(p.cfg.TeardownDelay)
	}

	if logs, err := p.backend.GetLog(info.Container); err != nil {
		log.Printf("containerpool: failed to retrieve logs for %s: %v", info.Container, err)
	} else if err := p.persistLog(info.Container, logs); err != nil {
		log.Printf("containerpool: failed to persist logs for %s: %v", info.Container, err)
	}

	if err := p.backend.Destroy(info.Container); err != nil {
		log.Printf("containerpool: failed to remove container %s: %v", info.Container, err)
	}
}

func (p *Pool) persistLog(name, contents string) error {
	if p.cfg.LogDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.cfg.LogDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(p.cfg.LogDir, name+".log")
	return os.WriteFile(path, []byte(contents), 0644)
}

// KillStragglers enumerates every backend container whose name begins with
// the pool's action prefix and removes them. Meant to be called once at
// startup to clean up after an abnormal restart.
func (p *Pool) KillStragglers() error {
	refs, err := p.backend.ListAll()
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if !hasActionPrefix(ref.Name, p.cfg.ActionNamePrefix) {
			continue
		}
		if err := p.backend.Destroy(ref.ID); err != nil {
			log.Printf("containerpool: failed to remove straggler %s: %v", ref.ID, err)
		}
	}
	return nil
}

func hasActionPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}
