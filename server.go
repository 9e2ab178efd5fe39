package bus

import (
	"context"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// OnConnected is invoked once per accepted or dialed peer, before the
// connection's dispatch loop starts reading, so the application can bind
// objects onto it.
type OnConnected func(*Connection)

// Server accepts peer connections on a listener and runs one Connection
// per accepted socket until the server is closed.
type Server struct {
	name     string
	listener net.Listener
	opts     Options

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

// Serve constructs a Server listening on l. opts.IsClient is forced to
// false: server-originated connections always allocate even transaction
// ids.
func Serve(name string, l net.Listener, opts Options) *Server {
	opts.IsClient = false
	return &Server{
		name:     name,
		listener: l,
		opts:     opts,
		conns:    make(map[*Connection]struct{}),
	}
}

// Run accepts connections until ctx is cancelled or the listener fails,
// constructing a Connection per peer, invoking onConnected, and running
// its dispatch loop in its own goroutine.
func (s *Server) Run(ctx context.Context, onConnected OnConnected) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		raw, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		conn := newConnection(s.name, raw, s.opts)
		s.track(conn)
		go func() {
			defer s.untrack(conn)
			if err := conn.Run(ctx, onConnected); err != nil {
				log.Debug().Str("server", s.name).Err(err).Msg("bus connection closed")
			}
		}()
	}
}

// ConnectionNames implements admin.Inspectable: a snapshot of bound Names
// per live connection, keyed by the connection's local address.
func (s *Server) ConnectionNames() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.conns))
	for c := range s.conns {
		key := c.name
		if addr, ok := c.rwc.(net.Conn); ok {
			key = addr.RemoteAddr().String()
		}
		out[key] = c.Names()
	}
	return out
}

// Close stops accepting new connections and closes every connection
// currently being served.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
	return err
}

func (s *Server) track(c *Connection) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
