package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

// Server answers protocol requests against a host cache carrying the TTL
// plugin. Requests from all connections are applied one at a time.
type Server struct {
	cache *cache.Cache
	touch ttl.TouchFunc
	log   *zap.Logger
	mu    sync.Mutex
}

// NewServer returns a Server for c. The touch extension must be registered.
func NewServer(c *cache.Cache, log *zap.Logger) (*Server, error) {
	touch, ok := ttl.TouchOf(c)
	if !ok {
		return nil, errors.New("daemon: cache has no touch extension")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cache: c, touch: touch, log: log}, nil
}

// Serve accepts connections on l until ctx is cancelled or l fails.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn("accept timeout", zap.Error(err))
				continue
			}
			return fmt.Errorf("daemon: accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn handles requests on conn until the peer hangs up or ctx ends.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	dec := json.NewDecoder(conn)
	dec.UseNumber()
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(s.Handle(req)); err != nil {
			s.log.Warn("write response", zap.Error(err))
			return
		}
	}
}

// Handle applies a single request.
func (s *Server) Handle(req Request) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Op {
	case OpGet:
		item, err := s.cache.GetItem(req.Key)
		if err != nil {
			return s.fail(req, err)
		}
		if item == nil {
			return Response{OK: true}
		}
		resp := Response{OK: true, Found: true, Value: item.Value}
		if md, ok := item.Extra[ttl.KeyTTLData]; ok {
			b, err := json.Marshal(md)
			if err == nil {
				_, err = ttl.ParseMetadata(b)
			}
			if err == nil {
				resp.TTL = b
			}
		}
		return resp
	case OpHas:
		found, err := s.cache.HasItem(req.Key)
		if err != nil {
			return s.fail(req, err)
		}
		return Response{OK: true, Found: found}
	case OpSet:
		if err := s.cache.SetItem(req.Key, req.Value, req.Extra); err != nil {
			return s.fail(req, err)
		}
		return Response{OK: true}
	case OpTouch:
		res, err := s.touch(req.Key)
		if err != nil {
			return s.fail(req, err)
		}
		md, ok := res.Get()
		if !ok {
			return Response{OK: true}
		}
		b, err := json.Marshal(md)
		if err != nil {
			return s.fail(req, err)
		}
		return Response{OK: true, Found: true, TTL: b}
	case OpDelete:
		if err := s.cache.RemoveItem(req.Key); err != nil {
			return s.fail(req, err)
		}
		return Response{OK: true}
	default:
		return Response{OK: false, Error: "unknown op"}
	}
}

func (s *Server) fail(req Request, err error) Response {
	if v, ok := ttl.AsValidationError(err); ok {
		return Response{OK: false, Code: CodeInvalidTTL, Error: v.Error()}
	}
	s.log.Error("request failed", zap.String("op", req.Op), zap.String("key", req.Key), zap.Error(err))
	return Response{OK: false, Error: err.Error()}
}
