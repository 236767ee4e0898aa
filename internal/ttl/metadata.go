package ttl

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata records when an item was written, for how long it lives and
// the instant after which it counts as expired. Values are immutable:
// renewing an item produces a new Metadata.
type Metadata struct {
	ttl       int
	created   time.Time
	validTill time.Time
}

// NewMetadata builds the metadata for an item written at created that
// lives for ttl seconds.
func NewMetadata(ttl int, created time.Time) (Metadata, error) {
	if ttl <= 0 {
		return Metadata{}, ErrTTLNotPositive
	}
	if int64(ttl) > MaxTTL {
		return Metadata{}, ErrTTLOutOfRange
	}
	return Metadata{
		ttl:       ttl,
		created:   created,
		validTill: created.Add(seconds(ttl)),
	}, nil
}

// TTL is the configured lifetime in seconds.
func (m Metadata) TTL() int { return m.ttl }

// Duration is TTL as a time.Duration.
func (m Metadata) Duration() time.Duration { return seconds(m.ttl) }

func (m Metadata) Created() time.Time { return m.created }

func (m Metadata) ValidTill() time.Time { return m.validTill }

// ExpiredAt reports whether the item is expired at now. The deadline
// itself still counts as valid.
func (m Metadata) ExpiredAt(now time.Time) bool { return now.After(m.validTill) }

// IsZero reports whether m is the zero Metadata.
func (m Metadata) IsZero() bool { return m.ttl == 0 }

// RenewedAt keeps TTL and Created and moves the deadline to now+TTL.
func (m Metadata) RenewedAt(now time.Time) Metadata {
	return Metadata{ttl: m.ttl, created: m.created, validTill: now.Add(m.Duration())}
}

func (m Metadata) String() string {
	return fmt.Sprintf("ttl=%ds created=%s validTill=%s",
		m.ttl, m.created.Format(time.RFC3339), m.validTill.Format(time.RFC3339))
}

// wireMetadata is the persisted shape of ttlData.
type wireMetadata struct {
	TTL       int       `json:"ttl"`
	Created   time.Time `json:"created"`
	ValidTill time.Time `json:"validTill"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMetadata{TTL: m.ttl, Created: m.created, ValidTill: m.validTill})
}

// ParseMetadata decodes the persisted ttlData shape.
func ParseMetadata(b []byte) (Metadata, error) {
	var w wireMetadata
	if err := json.Unmarshal(b, &w); err != nil {
		return Metadata{}, fmt.Errorf("ttl: parse metadata: %w", err)
	}
	if w.TTL <= 0 {
		return Metadata{}, fmt.Errorf("ttl: parse metadata: %w", ErrTTLNotPositive)
	}
	if w.ValidTill.IsZero() {
		return Metadata{}, fmt.Errorf("ttl: parse metadata: missing validTill")
	}
	return Metadata{ttl: w.TTL, created: w.Created, validTill: w.ValidTill}, nil
}

// metadataFrom extracts ttlData from v, which is either a Metadata put
// there in process or whatever a persistent store decoded it back into.
func metadataFrom(v any) (Metadata, error) {
	switch d := v.(type) {
	case Metadata:
		if d.IsZero() {
			return Metadata{}, errNoMetadata
		}
		return d, nil
	case *Metadata:
		if d == nil || d.IsZero() {
			return Metadata{}, errNoMetadata
		}
		return *d, nil
	case json.RawMessage:
		return ParseMetadata(d)
	case []byte:
		return ParseMetadata(d)
	case map[string]any:
		b, err := json.Marshal(d)
		if err != nil {
			return Metadata{}, err
		}
		return ParseMetadata(b)
	case nil:
		return Metadata{}, errNoMetadata
	default:
		return Metadata{}, fmt.Errorf("ttl: unexpected ttlData type %T", v)
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
