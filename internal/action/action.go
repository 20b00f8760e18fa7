package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sunnyhub/openwhisk/internal/cache"
	"github.com/sunnyhub/openwhisk/utils"
)

// Limits carries the per-action overrides passed through to
// container.ContainerBackend.Create.
type Limits struct {
	MemoryMB int64
	Cmd      []string
}

// Action is the read-only metadata the pool needs to compute a key and
// create a container for a namespace/name/revision tuple.
type Action struct {
	Namespace string
	Name      string
	Revision  string
	Image     string
	Limits    Limits
}

// AuthKey identifies the caller presenting a request.
type AuthKey struct {
	UUID   string
	Secret string
}

func (a *Action) Fqn() string {
	return fmt.Sprintf("%s/%s", a.Namespace, a.Name)
}

func actionCacheKey(namespace, name string) string {
	return fmt.Sprintf("action:%s/%s", namespace, name)
}

func actionEtcdKey(namespace, name string) string {
	return fmt.Sprintf("/action/%s/%s", namespace, name)
}

func authCacheKey(uuid string) string {
	return fmt.Sprintf("auth:%s", uuid)
}

func authEtcdKey(uuid string) string {
	return fmt.Sprintf("/auth/%s", uuid)
}

// GetAction retrieves an action by namespace and name, checking the local
// cache first and falling back to etcd, mirroring the function store's
// cache-then-etcd lookup.
func GetAction(namespace, name string) (*Action, bool) {
	key := actionCacheKey(namespace, name)
	if a, found := getActionFromCache(key); found {
		return a, true
	}

	a, found := getActionFromEtcd(namespace, name)
	if !found {
		return nil, false
	}
	cache.GetCacheInstance().Set(key, a, cache.DefaultExp)
	return a, true
}

func getActionFromCache(key string) (*Action, bool) {
	v, found := cache.GetCacheInstance().Get(key)
	if !found {
		return nil, false
	}
	a := *v.(*Action)
	return &a, true
}

func getActionFromEtcd(namespace, name string) (*Action, bool) {
	cli, err := utils.GetEtcdClient()
	if err != nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := cli.Get(ctx, actionEtcdKey(namespace, name))
	if err != nil || len(resp.Kvs) < 1 {
		return nil, false
	}

	var a Action
	if err := json.Unmarshal(resp.Kvs[0].Value, &a); err != nil {
		return nil, false
	}
	return &a, true
}

// GetAuthKey retrieves an auth key by UUID, with the same cache-then-etcd
// lookup as GetAction.
func GetAuthKey(uuid string) (*AuthKey, bool) {
	key := authCacheKey(uuid)
	if v, found := cache.GetCacheInstance().Get(key); found {
		auth := *v.(*AuthKey)
		return &auth, true
	}

	cli, err := utils.GetEtcdClient()
	if err != nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := cli.Get(ctx, authEtcdKey(uuid))
	if err != nil || len(resp.Kvs) < 1 {
		return nil, false
	}

	var auth AuthKey
	if err := json.Unmarshal(resp.Kvs[0].Value, &auth); err != nil {
		return nil, false
	}
	cache.GetCacheInstance().Set(key, &auth, cache.DefaultExp)
	return &auth, true
}

// SeedAction writes a fixture Action directly to etcd, bypassing the
// read-only contract the pool observes. Nothing in this module calls it.
func SeedAction(a *Action) error {
	cli, err := utils.GetEtcdClient()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("could not marshal action: %w", err)
	}
	_, err = cli.Put(context.Background(), actionEtcdKey(a.Namespace, a.Name), string(payload))
	return err
}

// SeedAuthKey writes a fixture AuthKey directly to etcd. Nothing in this
// module calls it.
func SeedAuthKey(auth *AuthKey) error {
	cli, err := utils.GetEtcdClient()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("could not marshal auth key: %w", err)
	}
	_, err = cli.Put(context.Background(), authEtcdKey(auth.UUID), string(payload))
	return err
}
