// Package ttl adds time-to-live expiration to a host cache.
//
// Items written with an integer "ttl" in their extra data get a ttlData
// record. Reads and existence checks compare it against the clock and
// evict the item once it is past its deadline. Nothing is swept in the
// background: an expired item stays in the store until it is next looked at.
package ttl

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/leonardcser/ttl-cache/internal/cache"
)

const (
	// KeyTTL is the input-only extra field holding the requested TTL in seconds.
	KeyTTL = "ttl"
	// KeyTTLData is the extra field the computed Metadata is stored under.
	KeyTTLData = "ttlData"
	// ExtensionTouch is the name touch is registered under on the host.
	ExtensionTouch = "touch"
)

// TouchFunc renews the deadline of key. It returns None when key carries
// no ttlData.
type TouchFunc func(key string) (mo.Option[Metadata], error)

// Plugin is the TTL extension. It implements cache.Plugin.
type Plugin struct {
	clock Clock
	log   *zap.Logger
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(p *Plugin) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.log = l
		}
	}
}

func New(opts ...Option) *Plugin {
	p := &Plugin{clock: SystemClock, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Hooks implements cache.Plugin.
func (p *Plugin) Hooks() cache.Hooks {
	return cache.Hooks{
		PreSetItem:  p.preSetItem,
		PostHasItem: p.postHasItem,
		PostGetItem: p.postGetItem,
	}
}

// CreateExtensions implements cache.Plugin. It binds touch to inst.
func (p *Plugin) CreateExtensions(inst cache.Instance) cache.Extensions {
	return cache.Extensions{
		ExtensionTouch: TouchFunc(func(key string) (mo.Option[Metadata], error) {
			return p.Touch(inst, key)
		}),
	}
}

// TouchOf returns the touch extension registered on c.
func TouchOf(c interface{ Extension(string) (any, bool) }) (TouchFunc, bool) {
	ext, ok := c.Extension(ExtensionTouch)
	if !ok {
		return nil, false
	}
	fn, ok := ext.(TouchFunc)
	return fn, ok
}

// Touch moves the deadline of key to now+TTL, keeping TTL and Created.
// Other extra fields are preserved. Keys without ttlData are left alone
// and yield None.
func (p *Plugin) Touch(inst cache.Instance, key string) (mo.Option[Metadata], error) {
	extra, err := inst.GetExtra(key)
	if err != nil {
		return mo.None[Metadata](), err
	}
	md, ok := p.lookup(key, extra)
	if !ok {
		return mo.None[Metadata](), nil
	}
	renewed := md.RenewedAt(p.clock.Now())
	next := extra.Clone()
	next[KeyTTLData] = renewed
	if err := inst.SetExtra(key, next); err != nil {
		return mo.None[Metadata](), err
	}
	p.log.Debug("ttl renewed", zap.String("key", key), zap.Time("valid_till", renewed.ValidTill()))
	return mo.Some(renewed), nil
}

func (p *Plugin) preSetItem(in cache.SetPayload) (cache.SetPayload, error) {
	if in.Extra == nil {
		return in, nil
	}
	raw, ok := in.Extra[KeyTTL]
	if !ok {
		return in, nil
	}
	secs, err := parseTTL(raw)
	if err != nil {
		return in, err
	}
	md, err := NewMetadata(secs, p.clock.Now())
	if err != nil {
		return in, err
	}
	extra := in.Extra.Clone()
	delete(extra, KeyTTL)
	extra[KeyTTLData] = md

	out := in
	out.Extra = extra
	return out, nil
}

func (p *Plugin) postHasItem(in cache.HasPayload) (cache.HasPayload, error) {
	if !in.Result {
		return in, nil
	}
	extra, err := in.Cache.GetExtra(in.Key)
	if err != nil {
		return in, err
	}
	md, ok := p.lookup(in.Key, extra)
	if !ok || !md.ExpiredAt(p.clock.Now()) {
		return in, nil
	}
	if err := p.expire(in.Cache, in.Key, md); err != nil {
		return in, err
	}
	out := in
	out.Result = false
	return out, nil
}

func (p *Plugin) postGetItem(in cache.GetPayload) (cache.GetPayload, error) {
	if in.Item == nil {
		return in, nil
	}
	md, ok := p.lookup(in.Key, in.Item.Extra)
	if !ok || !md.ExpiredAt(p.clock.Now()) {
		return in, nil
	}
	if err := p.expire(in.Cache, in.Key, md); err != nil {
		return in, err
	}
	out := in
	out.Item = nil
	return out, nil
}

func (p *Plugin) expire(inst cache.Instance, key string, md Metadata) error {
	p.log.Debug("ttl expired", zap.String("key", key), zap.Time("valid_till", md.ValidTill()))
	return inst.RemoveItem(key)
}

// lookup returns the ttlData of extra. Unreadable ttlData is treated as
// absent so a corrupt record never makes an item unreachable.
func (p *Plugin) lookup(key string, extra cache.Extra) (Metadata, bool) {
	if extra == nil {
		return Metadata{}, false
	}
	v, ok := extra[KeyTTLData]
	if !ok {
		return Metadata{}, false
	}
	md, err := metadataFrom(v)
	if err != nil {
		if !errors.Is(err, errNoMetadata) {
			p.log.Warn("ignoring unreadable ttlData", zap.String("key", key), zap.Error(err))
		}
		return Metadata{}, false
	}
	return md, true
}

// parseTTL accepts any integer kind, plus floats and JSON numbers that
// hold an integral value.
func parseTTL(v any) (int, error) {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int8:
		n = int64(t)
	case int16:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, ErrTTLOutOfRange
		}
		n = int64(t)
	case uint8:
		n = int64(t)
	case uint16:
		n = int64(t)
	case uint32:
		n = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, ErrTTLOutOfRange
		}
		n = int64(t)
	case float32:
		return parseFloatTTL(float64(t))
	case float64:
		return parseFloatTTL(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 0, ErrTTLNotInteger
			}
			return parseFloatTTL(f)
		}
		n = i
	default:
		return 0, ErrTTLNotInteger
	}
	if n <= 0 {
		return 0, ErrTTLNotPositive
	}
	if n > MaxTTL {
		return 0, ErrTTLOutOfRange
	}
	return int(n), nil
}

func parseFloatTTL(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, ErrTTLNotInteger
	}
	if f <= 0 {
		return 0, ErrTTLNotPositive
	}
	if f > float64(MaxTTL) {
		return 0, ErrTTLOutOfRange
	}
	return int(f), nil
}
