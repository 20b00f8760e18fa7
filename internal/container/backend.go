package container

import (
	"io"

	"github.com/sunnyhub/openwhisk/internal/executor"
)

// ContainerID identifies a container within the backend's own namespace.
type ContainerID = string

// ContainerOptions carries the parameters needed to create a container.
type ContainerOptions struct {
	Name     string
	Cmd      []string
	Env      []string
	MemoryMB int64
	CPUQuota float64
}

// ContainerBackend is the external container runtime driver the pool talks
// to. It is opaque to the pool: the pool never imports docker/podman types
// directly, only this interface.
type ContainerBackend interface {
	Create(image string, opts *ContainerOptions) (ContainerID, error)
	CopyToContainer(id ContainerID, content io.Reader, destPath string) error
	Start(id ContainerID) error
	// Init runs the action entrypoint inside the container with payload and
	// reports a timestamped result. Called once per cold start; warm
	// invocations of that same container go through Invoke instead.
	Init(id ContainerID, req *executor.InvocationRequest) (*executor.RunResult, error)
	Pause(id ContainerID) error
	Unpause(id ContainerID) error
	Kill(id ContainerID) error
	Destroy(id ContainerID) error
	HasImage(image string) bool
	PullImage(image string) error
	GetIPAddress(id ContainerID) (string, error)
	GetMemoryMB(id ContainerID) (int64, error)
	GetLog(id ContainerID) (string, error)
	GetLogSize(id ContainerID) (int64, error)
	ListAll() ([]ContainerRef, error)
}

// ContainerRef is a minimal listing entry: enough to recognize and remove a
// straggler container without a full inspect.
type ContainerRef struct {
	ID   ContainerID
	Name string
}

// cf is the process-wide container backend, set by whichever
// Init*ContainerFactory is called at startup.
var cf ContainerBackend

// Backend returns the process-wide container backend.
func Backend() ContainerBackend {
	return cf
}

func DownloadImage(image string, forceRefresh bool) error {
	if forceRefresh || !cf.HasImage(image) {
		return cf.PullImage(image)
	}
	return nil
}
