// Package cache stores OTP records in Redis. Each record is a hash and every
// identifier/code pair keeps a sorted set of record ids scored by creation
// time, so the latest match is a single ZREVRANGE away.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyRecord = entity.TableName + ":record:"
	keyIndex  = entity.TableName + ":index:"

	// DefaultRetention is how long records stay readable after creation.
	DefaultRetention = 24 * time.Hour
)

// consumeScript flips consumed from 0 to 1. It returns -1 when the record is
// gone, 0 when it was already consumed and 1 when this call consumed it.
var consumeScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'consumed')
if not v then
	return -1
end
if v ~= '0' then
	return 0
end
redis.call('HSET', KEYS[1], 'consumed', '1', 'updated_at', ARGV[1])
return 1
`)

type Cache struct {
	client    redis.UniversalClient
	uid       uid.NumberID
	ins       instrument.Instrumentation
	retention time.Duration
}

func NewCache(client redis.UniversalClient, uid uid.NumberID, ins instrument.Instrumentation, retention time.Duration) *Cache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cache{client: client, uid: uid, ins: ins, retention: retention}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordKey(id int64) string {
	return keyRecord + strconv.FormatInt(id, 10)
}

func indexKey(identifier, code string) string {
	return keyIndex + identifier + ":" + code
}

func (c *Cache) CreateOTP(ctx context.Context, in entity.OTP) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "CreateOTP")
	defer func() { c.endSpan(span, err) }()

	id := c.uid.Generate()
	rk := recordKey(id)
	ik := indexKey(in.Identifier, in.Code)

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rk, map[string]any{
			"identifier": in.Identifier,
			"channel":    in.Channel.String(),
			"code":       in.Code,
			"consumed":   formatBool(in.Consumed),
			"expires_at": formatTime(in.ExpiresAt),
			"created_at": formatTime(in.CreatedAt),
			"updated_at": formatTime(in.UpdatedAt),
		})
		pipe.Expire(ctx, rk, c.retention)
		pipe.ZAdd(ctx, ik, redis.Z{Score: float64(in.CreatedAt.UnixMilli()), Member: strconv.FormatInt(id, 10)})
		pipe.Expire(ctx, ik, c.retention)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (c *Cache) GetLatestOTP(ctx context.Context, identifiers []string, code string) (_ *entity.OTP, err error) {
	ctx, span := c.startSpan(ctx, "GetLatestOTP")
	defer func() { c.endSpan(span, err) }()

	var (
		best    redis.Z
		bestID  int64
		matched bool
	)
	for _, identifier := range identifiers {
		zs, zErr := c.client.ZRevRangeWithScores(ctx, indexKey(identifier, code), 0, 0).Result()
		if zErr != nil {
			return nil, zErr
		}
		if len(zs) == 0 {
			continue
		}

		id, pErr := strconv.ParseInt(memberString(zs[0].Member), 10, 64)
		if pErr != nil {
			continue
		}
		if !matched || zs[0].Score > best.Score || (zs[0].Score == best.Score && id > bestID) {
			best, bestID, matched = zs[0], id, true
		}
	}
	if !matched {
		return nil, goerror.ErrNotFound
	}

	fields, err := c.client.HGetAll(ctx, recordKey(bestID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	return &entity.OTP{
		ID:         bestID,
		Identifier: fields["identifier"],
		Channel:    entity.Channel(fields["channel"]),
		Code:       fields["code"],
		Consumed:   fields["consumed"] != "0",
		ExpiresAt:  parseTime(fields["expires_at"]),
		CreatedAt:  parseTime(fields["created_at"]),
		UpdatedAt:  parseTime(fields["updated_at"]),
	}, nil
}

func (c *Cache) ConsumeOTP(ctx context.Context, id int64, at time.Time) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ConsumeOTP")
	defer func() { c.endSpan(span, err) }()

	res, err := consumeScript.Run(ctx, c.client, []string{recordKey(id)}, formatTime(at)).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for values it cannot read, which callers
// treat as already expired.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func memberString(m any) string {
	switch v := m.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
