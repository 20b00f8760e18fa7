package containerpool

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/executor"
)

// fakeBackend is an in-memory ContainerBackend: no process is ever started,
// but every call is observable for assertions about ordering and
// concurrency.
type fakeBackend struct {
	mu          sync.Mutex
	seq         uint64
	live        map[container.ContainerID]*fakeContainer
	names       map[container.ContainerID]string
	createCalls int32
	maxConcurrentCreate int32
	inFlightCreate      int32
	calls       []string // ordered log of "op:id"
}

type fakeContainer struct {
	paused bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		live:  make(map[container.ContainerID]*fakeContainer),
		names: make(map[container.ContainerID]string),
	}
}

func (f *fakeBackend) record(op string, id container.ContainerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s:%s", op, id))
}

func (f *fakeBackend) lastCallFor(id container.ContainerID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := ""
	suffix := ":" + id
	for _, c := range f.calls {
		if strings.HasSuffix(c, suffix) {
			last = c
		}
	}
	return last
}

func (f *fakeBackend) Create(image string, opts *container.ContainerOptions) (container.ContainerID, error) {
	atomic.AddInt32(&f.inFlightCreate, 1)
	defer atomic.AddInt32(&f.inFlightCreate, -1)

	if cur := atomic.LoadInt32(&f.inFlightCreate); cur > atomic.LoadInt32(&f.maxConcurrentCreate) {
		atomic.StoreInt32(&f.maxConcurrentCreate, cur)
	}
	atomic.AddInt32(&f.createCalls, 1)

	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("c%d", f.seq)
	f.live[id] = &fakeContainer{}
	f.names[id] = opts.Name
	f.mu.Unlock()

	f.record("create", id)
	return id, nil
}

func (f *fakeBackend) CopyToContainer(id container.ContainerID, content io.Reader, destPath string) error {
	return nil
}

func (f *fakeBackend) Start(id container.ContainerID) error {
	f.record("start", id)
	return nil
}

func (f *fakeBackend) Init(id container.ContainerID, req *executor.InvocationRequest) (*executor.RunResult, error) {
	f.record("init", id)
	return &executor.RunResult{Success: true, Result: "ok"}, nil
}

func (f *fakeBackend) Pause(id container.ContainerID) error {
	f.mu.Lock()
	f.live[id].paused = true
	f.mu.Unlock()
	f.record("pause", id)
	return nil
}

func (f *fakeBackend) Unpause(id container.ContainerID) error {
	f.mu.Lock()
	f.live[id].paused = false
	f.mu.Unlock()
	f.record("unpause", id)
	return nil
}

func (f *fakeBackend) Kill(id container.ContainerID) error {
	f.record("kill", id)
	return nil
}

func (f *fakeBackend) Destroy(id container.ContainerID) error {
	f.mu.Lock()
	delete(f.live, id)
	f.mu.Unlock()
	f.record("destroy", id)
	return nil
}

func (f *fakeBackend) HasImage(image string) bool { return true }
func (f *fakeBackend) PullImage(image string) error { return nil }

func (f *fakeBackend) GetIPAddress(id container.ContainerID) (string, error) {
	return "10.0.0.1", nil
}

func (f *fakeBackend) GetMemoryMB(id container.ContainerID) (int64, error) { return 128, nil }

func (f *fakeBackend) GetLog(id container.ContainerID) (string, error) {
	return "log for " + id, nil
}

func (f *fakeBackend) GetLogSize(id container.ContainerID) (int64, error) { return 0, nil }

func (f *fakeBackend) ListAll() ([]container.ContainerRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make([]container.ContainerRef, 0, len(f.live))
	for id := range f.live {
		refs = append(refs, container.ContainerRef{ID: id, Name: f.names[id]})
	}
	return refs, nil
}
