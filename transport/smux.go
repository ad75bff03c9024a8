package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

var errNoDialer = errors.New("no dialer configured")

func DefaultSmuxConfig() *smux.Config {
	return &smux.Config{
		Version:           1,
		KeepAliveInterval: 5 * time.Second,
		KeepAliveTimeout:  30 * time.Second,
		MaxFrameSize:      65535,
		MaxReceiveBuffer:  4194304,
		MaxStreamBuffer:   131072,
	}
}

// DialFunc opens the raw connection a client session runs on
type DialFunc func(addr string) (net.Conn, error)

// SessionPool keeps smux sessions per remote address. Clients use it to share
// sessions across requests; the server uses it to track accepted sessions.
type SessionPool struct {
	mu       sync.RWMutex
	sessions map[string][]*smux.Session
	counter  atomic.Uint64
	config   *smux.Config
	dial     DialFunc
}

// NewSessionPool returns an empty pool. dial may be nil for pools that only
// track sessions added from outside.
func NewSessionPool(config *smux.Config, dial DialFunc) *SessionPool {
	if config == nil {
		config = DefaultSmuxConfig()
	}
	return &SessionPool{
		sessions: make(map[string][]*smux.Session),
		config:   config,
		dial:     dial,
	}
}

func liveSessions(sessions []*smux.Session) []*smux.Session {
	var out []*smux.Session
	for _, s := range sessions {
		if s != nil && !s.IsClosed() {
			out = append(out, s)
		}
	}
	return out
}

// GetOrCreate returns one of the live sessions to addr, round-robin, and
// dials a new one when there is none.
func (p *SessionPool) GetOrCreate(addr string) (*smux.Session, error) {
	p.mu.RLock()
	valid := liveSessions(p.sessions[addr])
	if len(valid) > 0 {
		index := p.counter.Add(1) % uint64(len(valid))
		session := valid[index]
		p.mu.RUnlock()
		return session, nil
	}
	p.mu.RUnlock()

	if p.dial == nil {
		return nil, fmt.Errorf("no live session to %s: %w", addr, errNoDialer)
	}
	conn, err := p.dial(addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	session, err := smux.Client(conn, p.config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smux client %s: %w", addr, err)
	}

	p.Add(addr, session)
	log.Infof("GetOrCreate: new smux session, targetAddr=%s", addr)
	return session, nil
}

// Add registers a session under addr and drops closed ones
func (p *SessionPool) Add(addr string, session *smux.Session) {
	if session == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	kept := make([]*smux.Session, 0, len(p.sessions[addr])+1)
	for _, s := range p.sessions[addr] {
		if s != nil && !s.IsClosed() {
			kept = append(kept, s)
		} else if s != nil {
			s.Close()
		}
	}
	p.sessions[addr] = append(kept, session)
}

// Remove closes session and forgets it
func (p *SessionPool) Remove(addr string, session *smux.Session) {
	if session == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sessions := p.sessions[addr]
	for i, s := range sessions {
		if s == session {
			if !s.IsClosed() {
				s.Close()
			}
			p.sessions[addr] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(p.sessions[addr]) == 0 {
		delete(p.sessions, addr)
	}
}

// Count returns the number of live sessions to addr
func (p *SessionPool) Count(addr string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(liveSessions(p.sessions[addr]))
}

func (p *SessionPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for addr, sessions := range p.sessions {
		for _, s := range sessions {
			if s != nil && !s.IsClosed() {
				s.Close()
			}
		}
		delete(p.sessions, addr)
	}
}
