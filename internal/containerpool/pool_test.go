package containerpool

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/executor"
	"github.com/sunnyhub/openwhisk/utils"
)

func testConfig(t *testing.T, maxActive, maxIdle int) Config {
	cfg := DefaultConfig()
	cfg.MaxActive = maxActive
	cfg.MaxIdle = maxIdle
	cfg.LogDir = t.TempDir()
	cfg.TeardownDelay = 0
	cfg.ActionNamePrefix = "wsk"
	return cfg
}

func mustCreate(p *Pool, backend *fakeBackend, key, fqn string) container.ContainerID {
	create := func() (container.ContainerID, *executor.RunResult, error) {
		cid, err := backend.Create("whisk/action", &container.ContainerOptions{Name: p.nextName(fqn)})
		if err != nil {
			return "", nil, err
		}
		if err := backend.Start(cid); err != nil {
			return "", nil, err
		}
		res, err := backend.Init(cid, &executor.InvocationRequest{})
		return cid, res, err
	}
	cid, _, err := p.Get(context.Background(), key, create)
	if err != nil {
		panic(err)
	}
	return cid
}

// Scenario 1: warm reuse. get;putBack;get returns the same container with a
// nil RunResult on the cache hit.
func TestWarmReuse(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 2, 1))

	c1 := mustCreate(p, backend, "k1", "ns/act")
	utils.AssertTrue(t, p.PutBack(c1, false) == nil)

	create := func() (container.ContainerID, *executor.RunResult, error) {
		t.Fatal("create should not be called on a cache hit")
		return "", nil, nil
	}
	cid, runResult, err := p.Get(context.Background(), "k1", create)
	utils.AssertNil(t, err)
	utils.AssertEquals(t, c1, cid)
	utils.AssertTrue(t, runResult == nil)
	utils.AssertEquals(t, "unpause:"+c1, backend.lastCallFor(c1))
}

// Scenario 2: capacity eviction on return. Returning a second container when
// idleCount==maxIdle evicts the oldest idle one first.
func TestCapacityEvictionOnReturn(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 2, 1))

	c1 := mustCreate(p, backend, "k1", "ns/act1")
	c2 := mustCreate(p, backend, "k2", "ns/act2")

	utils.AssertNil(t, p.PutBack(c1, false))
	time.Sleep(2 * time.Millisecond) // ensure distinct LastUsed
	utils.AssertNil(t, p.PutBack(c2, false))

	st := p.Status()
	utils.AssertEquals(t, 1, st.Idle)

	if _, stillLive := backend.live[c1]; stillLive {
		t.Fatalf("c1 should have been evicted and torn down")
	}
	if _, stillLive := backend.live[c2]; !stillLive {
		t.Fatalf("c2 should still be idle, not evicted")
	}

	logPath := filepath.Join(p.cfg.LogDir, c1+".log")
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected log file for evicted container at %s: %v", logPath, err)
	}
}

// Scenario 3: active cap enforced. A second distinct key blocks until the
// first container is returned.
func TestActiveCapEnforced(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 1, 1))

	c1 := mustCreate(p, backend, "k1", "ns/act1")

	done := make(chan container.ContainerID, 1)
	go func() {
		done <- mustCreate(p, backend, "k2", "ns/act2")
	}()

	select {
	case <-done:
		t.Fatal("get(k2) should not succeed while k1's container is still active")
	case <-time.After(150 * time.Millisecond):
	}

	utils.AssertNil(t, p.PutBack(c1, false))

	select {
	case c2 := <-done:
		utils.AssertFalse(t, c2 == c1)
	case <-time.After(2 * time.Second):
		t.Fatal("get(k2) should have succeeded after putBack(c1)")
	}
}

// Scenario 4: serialized creation. Concurrent gets on distinct cold keys
// never observe more than one in-flight backend Create call.
func TestSerializedCreation(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 4, 4))

	var wg sync.WaitGroup
	keys := []string{"k1", "k2", "k3"}
	for i, k := range keys {
		wg.Add(1)
		go func(key string, n int) {
			defer wg.Done()
			mustCreate(p, backend, key, "ns/act")
		}(k, i)
	}
	wg.Wait()

	if backend.maxConcurrentCreate > 1 {
		t.Fatalf("observed %d concurrent Create calls, want at most 1", backend.maxConcurrentCreate)
	}
	utils.AssertEquals(t, int32(3), backend.createCalls)
}

// Scenario 5: age-based eviction. A short GC threshold and interval expires
// an idle container, and a following get recreates one.
func TestAgeBasedEviction(t *testing.T) {
	backend := newFakeBackend()
	cfg := testConfig(t, 2, 2)
	cfg.GCThreshold = 100 * time.Millisecond
	cfg.GCInterval = 50 * time.Millisecond
	p := New(backend, cfg)

	c1 := mustCreate(p, backend, "k1", "ns/act")
	utils.AssertNil(t, p.PutBack(c1, false))

	p.StartGC()
	defer p.StopGC()

	time.Sleep(300 * time.Millisecond)

	if _, stillLive := backend.live[c1]; stillLive {
		t.Fatalf("c1 should have been GC'd after the age threshold elapsed")
	}

	c2 := mustCreate(p, backend, "k1", "ns/act")
	utils.AssertFalse(t, c2 == c1)
}

// Scenario 6: straggler cleanup. killStragglers removes only containers
// whose name carries the pool's action prefix.
func TestKillStragglers(t *testing.T) {
	backend := newFakeBackend()
	cfg := testConfig(t, 2, 2)
	p := New(backend, cfg)

	wsk1, _ := backend.Create("whisk/action", &container.ContainerOptions{Name: "wsk1_0_ns_act_ts"})
	wsk2, _ := backend.Create("whisk/action", &container.ContainerOptions{Name: "wsk1_1_ns_act2_ts"})
	other, _ := backend.Create("whisk/action", &container.ContainerOptions{Name: "other_container"})

	utils.AssertNil(t, p.KillStragglers())

	_, wsk1Live := backend.live[wsk1]
	_, wsk2Live := backend.live[wsk2]
	_, otherLive := backend.live[other]

	utils.AssertFalse(t, wsk1Live)
	utils.AssertFalse(t, wsk2Live)
	utils.AssertTrue(t, otherLive)
}

// Invariant: activeCount+idleCount == len(containerMap), and
// activeCount+starting <= maxActive, after a representative sequence.
func TestPoolInvariants(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 2, 2))

	c1 := mustCreate(p, backend, "k1", "ns/act1")
	c2 := mustCreate(p, backend, "k2", "ns/act2")
	utils.AssertNil(t, p.PutBack(c1, false))

	p.poolLock.Lock()
	utils.AssertEquals(t, p.activeCount+p.idleCount, len(p.containerMap))
	utils.AssertTrue(t, p.activeCount+p.starting <= p.cfg.MaxActive)
	p.poolLock.Unlock()

	utils.AssertNil(t, p.PutBack(c2, false))
}

// Round-trip: forceGC twice in a row with no intervening activity is a
// no-op the second time.
func TestForceGCIdempotent(t *testing.T) {
	backend := newFakeBackend()
	p := New(backend, testConfig(t, 2, 2))

	c1 := mustCreate(p, backend, "k1", "ns/act")
	utils.AssertNil(t, p.PutBack(c1, false))

	p.ForceGC()
	swept := p.Status().GCSwept
	utils.AssertEquals(t, uint64(1), swept)

	p.ForceGC()
	utils.AssertEquals(t, swept, p.Status().GCSwept)
}
