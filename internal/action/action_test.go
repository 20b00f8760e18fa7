package action

import (
	"testing"

	"github.com/sunnyhub/openwhisk/internal/cache"
	"github.com/sunnyhub/openwhisk/utils"
)

func init() {
	if cache.Instance == nil {
		cache.Size = 100
		cache.DefaultExp = cache.NoExpiration
		cache.GetCacheInstance()
	}
}

func TestActionFqn(t *testing.T) {
	a := &Action{Namespace: "guest", Name: "hello"}
	utils.AssertEquals(t, "guest/hello", a.Fqn())
}

// GetAction must resolve from the local cache without reaching etcd when
// the entry is already populated there.
func TestGetActionCacheHit(t *testing.T) {
	a := &Action{
		Namespace: "guest",
		Name:      "cached-action",
		Revision:  "1",
		Image:     "whisk/nodejs14action",
		Limits:    Limits{MemoryMB: 256, Cmd: []string{"node", "app.js"}},
	}
	cache.GetCacheInstance().Set(actionCacheKey(a.Namespace, a.Name), a, cache.DefaultExp)

	got, found := GetAction("guest", "cached-action")
	utils.AssertTrue(t, found)
	utils.AssertEquals(t, a.Image, got.Image)
	utils.AssertEquals(t, a.Limits.MemoryMB, got.Limits.MemoryMB)
}

func TestGetAuthKeyCacheHit(t *testing.T) {
	auth := &AuthKey{UUID: "11111111-2222-3333-4444-555555555555", Secret: "s3cr3t"}
	cache.GetCacheInstance().Set(authCacheKey(auth.UUID), auth, cache.DefaultExp)

	got, found := GetAuthKey(auth.UUID)
	utils.AssertTrue(t, found)
	utils.AssertEquals(t, auth.Secret, got.Secret)
}

func TestGetActionMissWithoutEtcd(t *testing.T) {
	_, found := GetAction("guest", "no-such-action-in-cache-or-etcd")
	utils.AssertFalse(t, found)
}

func TestEtcdKeyFormat(t *testing.T) {
	utils.AssertEquals(t, "/action/guest/hello", actionEtcdKey("guest", "hello"))
	utils.AssertEquals(t, "/auth/some-uuid", authEtcdKey("some-uuid"))
}
