package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/redis/go-redis/v9"
)

// memoryHook answers the Redis commands the store issues from a map, so the
// client never dials a server.
type memoryHook struct {
	mu   sync.Mutex
	data map[string]string
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *memoryHook) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StatusCmd:
			switch cmd.Name() {
			case "ping":
				c.SetVal("PONG")
			case "set":
				h.data[fmt.Sprint(args[1])] = fmt.Sprint(args[2])
				c.SetVal("OK")
			}
		case *redis.StringCmd:
			value, ok := h.data[fmt.Sprint(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(value)
		case *redis.IntCmd:
			var deleted int64
			for _, key := range args[1:] {
				if _, ok := h.data[fmt.Sprint(key)]; ok {
					delete(h.data, fmt.Sprint(key))
					deleted++
				}
			}
			c.SetVal(deleted)
		default:
			err := fmt.Errorf("unsupported command %s", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

// newMemoryRedis returns a Redis KV whose commands are served from the
// returned map.
func newMemoryRedis(t *testing.T) (*Redis, map[string]string) {
	t.Helper()

	hook := &memoryHook{data: make(map[string]string)}
	kv := NewRedis("localhost:6379", constants.DefaultRedisPrefix)
	kv.client.AddHook(hook)
	t.Cleanup(func() { _ = kv.Close() })
	return kv, hook.data
}

func TestRedisKeysArePrefixed(t *testing.T) {
	ctx := context.Background()
	kv, data := newMemoryRedis(t)

	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	if err := kv.Set(ctx, constants.ReturnPowerKey, "0.4"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := data[constants.DefaultRedisPrefix+constants.ReturnPowerKey]; got != "0.4" {
		t.Errorf("expected prefixed key to hold 0.4, got %q (data %v)", got, data)
	}
	if _, ok := data[constants.ReturnPowerKey]; ok {
		t.Error("unprefixed key should not be written")
	}
}

func TestRedisResetClearsPreferences(t *testing.T) {
	ctx := context.Background()
	kv, data := newMemoryRedis(t)
	repo := NewRepository(kv, nil)

	prefs := household.Preferences{
		ReturnPower: household.ReturnPowerFortyPercent,
		Fees:        household.FeeRates{Legal: 1, Broker: 1.5},
	}
	if err := repo.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("SavePreferences() error: %v", err)
	}
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	for _, key := range preferenceKeys {
		if _, ok := data[constants.DefaultRedisPrefix+key]; ok {
			t.Errorf("expected %s to be deleted by Reset", key)
		}
	}
	loaded, err := repo.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences() error: %v", err)
	}
	if loaded != household.DefaultPreferences() {
		t.Errorf("preferences after reset = %+v", loaded)
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	settings := Settings{Backend: constants.StoreBackendRedis, RedisAddr: "127.0.0.1:1"}
	if _, err := Open(context.Background(), settings, t.TempDir()); err == nil {
		t.Error("expected an error for an unreachable redis server")
	}
}
