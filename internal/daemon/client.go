package daemon

import (
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/samber/mo"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

// Item is a value read through the daemon.
type Item struct {
	Value []byte
	TTL   mo.Option[ttl.Metadata]
}

// Client talks to the cache daemon over a Unix socket. Each call uses a
// fresh connection.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
	dial        func() (net.Conn, error)
}

func NewClient(socketPath string, dialTimeout time.Duration) *Client {
	if dialTimeout <= 0 {
		dialTimeout = 500 * time.Millisecond
	}
	c := &Client{socketPath: socketPath, dialTimeout: dialTimeout}
	c.dial = func() (net.Conn, error) {
		return net.DialTimeout("unix", c.socketPath, c.dialTimeout)
	}
	return c
}

// Ping checks that the daemon accepts connections.
func (c *Client) Ping() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	return conn.Close()
}

// Get returns the item stored under key, or cache.ErrNotFound.
func (c *Client) Get(key string) (*Item, error) {
	resp, err := c.roundTrip(Request{Op: OpGet, Key: key})
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, cache.ErrNotFound
	}
	md, err := parseTTL(resp.TTL)
	if err != nil {
		return nil, err
	}
	return &Item{Value: resp.Value, TTL: md}, nil
}

func (c *Client) Has(key string) (bool, error) {
	resp, err := c.roundTrip(Request{Op: OpHas, Key: key})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

// Set stores value under key. A "ttl" entry in extra requests expiration.
func (c *Client) Set(key string, value []byte, extra cache.Extra) error {
	_, err := c.roundTrip(Request{Op: OpSet, Key: key, Value: value, Extra: extra})
	return err
}

// SetTTL stores value under key for the given number of seconds.
func (c *Client) SetTTL(key string, value []byte, seconds int) error {
	return c.Set(key, value, cache.Extra{ttl.KeyTTL: seconds})
}

// Touch renews the deadline of key. None means key has no TTL.
func (c *Client) Touch(key string) (mo.Option[ttl.Metadata], error) {
	resp, err := c.roundTrip(Request{Op: OpTouch, Key: key})
	if err != nil {
		return mo.None[ttl.Metadata](), err
	}
	return parseTTL(resp.TTL)
}

func (c *Client) Delete(key string) error {
	_, err := c.roundTrip(Request{Op: OpDelete, Key: key})
	return err
}

func (c *Client) roundTrip(req Request) (Response, error) {
	conn, err := c.dial()
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	if !resp.OK {
		if resp.Code == CodeInvalidTTL {
			if verr, ok := ttl.ValidationErrorFor(resp.Error); ok {
				return resp, verr
			}
		}
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

func parseTTL(raw json.RawMessage) (mo.Option[ttl.Metadata], error) {
	if len(raw) == 0 {
		return mo.None[ttl.Metadata](), nil
	}
	md, err := ttl.ParseMetadata(raw)
	if err != nil {
		return mo.None[ttl.Metadata](), err
	}
	return mo.Some(md), nil
}
