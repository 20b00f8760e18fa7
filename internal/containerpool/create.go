package containerpool

import (
	"fmt"

	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/executor"
)

// NewCreateFunc builds the CreateFunc Get drives on a cache miss: it asks
// the backend for a fresh container named per naming.go, starts it, and
// runs the cold-start Init call with initReq.
func (p *Pool) NewCreateFunc(image string, opts *container.ContainerOptions, fqn string, initReq *executor.InvocationRequest) CreateFunc {
	return func() (container.ContainerID, *executor.RunResult, error) {
		opts.Name = p.nextName(fqn)
		cid, err := p.backend.Create(image, opts)
		if err != nil {
			return "", nil, fmt.Errorf("backend create failed: %w", err)
		}
		if err := p.backend.Start(cid); err != nil {
			return "", nil, fmt.Errorf("backend start failed: %w", err)
		}

		result, err := p.backend.Init(cid, initReq)
		if err != nil {
			return "", nil, fmt.Errorf("cold-start init failed: %w", err)
		}
		return cid, result, nil
	}
}
