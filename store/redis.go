package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskforge/authkit/session"
)

// replaceScript is the whole-document compare-and-swap. Redis runs scripts
// atomically, so two racing replaces on the same key serialize here: the
// one whose expected value still matches wins, the other sees status 0.
const replaceScript = `
local cur = redis.call("GET", KEYS[1])
if cur == false then
  cur = ""
end
if cur ~= ARGV[1] then
  return 0
end
if ARGV[2] == "" then
  redis.call("DEL", KEYS[1])
else
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
end
return 1
`

var replaceLua = redis.NewScript(replaceScript)

// Redis is the production AuthStore: one JSON document per principal under
// prefix, with the CAS implemented as a Lua script.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps a go-redis client. prefix namespaces the keys.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(principalID string) string {
	return r.prefix + ":" + principalID
}

// Load implements AuthStore.
func (r *Redis) Load(ctx context.Context, principalID string) (*session.AuthState, Version, error) {
	data, err := r.client.Get(ctx, r.key(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &session.AuthState{}, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var st session.AuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil, fmt.Errorf("%w: corrupt auth state: %v", ErrUnavailable, err)
	}
	return &st, Version(data), nil
}

// Replace implements AuthStore. The expected version is compared against
// the stored bytes inside the script, so a concurrent writer that got in
// between the caller's Load and this call surfaces as ErrConflict.
func (r *Redis) Replace(ctx context.Context, principalID string, expected Version, st *session.AuthState, ttl time.Duration) error {
	var next []byte
	if !st.Empty() {
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		next = data
	}
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	res, err := replaceLua.Run(
		ctx,
		r.client,
		[]string{r.key(principalID)},
		string(expected),
		string(next),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	code, ok := res.(int64)
	if !ok {
		return fmt.Errorf("%w: unexpected CAS script response", ErrUnavailable)
	}
	if code != 1 {
		return ErrConflict
	}
	return nil
}

// Ping reports store reachability and round-trip latency.
func (r *Redis) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
