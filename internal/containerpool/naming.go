package containerpool

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var nameReplacer = strings.NewReplacer("/", "_", ":", "_", "@", "_")

// nextName produces {prefix}{instance}_{seq}_{sanitizedFqn}_{isoTimestamp},
// used both as the container's display name and, via its prefix, by
// killStragglers to recognize containers this pool owns.
func (p *Pool) nextName(fqn string) string {
	seq := atomic.AddUint64(&p.seq, 1)
	sanitized := nameReplacer.Replace(fqn)
	ts := time.Now().UTC().Format("20060102T150405.000Z")
	return fmt.Sprintf("%s%s_%d_%s_%s", p.cfg.ActionNamePrefix, p.cfg.InvokerInstance, seq, sanitized, ts)
}
