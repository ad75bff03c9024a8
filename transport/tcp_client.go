package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"energy_routing/protocol"

	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

const defaultDialTimeout = 5 * time.Second

// TCPClient talks to a TCPServer. Requests share one smux session and each
// opens its own stream, closed when the request's context ends.
type TCPClient struct {
	addr         string
	sessions     *SessionPool
	maxBodyBytes int
}

func NewTCPClient(addr string) *TCPClient {
	dial := func(addr string) (net.Conn, error) {
		return net.DialTimeout("tcp", addr, defaultDialTimeout)
	}
	return &TCPClient{
		addr:         addr,
		sessions:     NewSessionPool(DefaultSmuxConfig(), dial),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewTCPClientWithConn runs the client over an existing connection. The
// client does not redial once that connection is gone.
func NewTCPClientWithConn(conn net.Conn) (*TCPClient, error) {
	session, err := smux.Client(conn, DefaultSmuxConfig())
	if err != nil {
		return nil, fmt.Errorf("smux client: %w", err)
	}
	addr := conn.RemoteAddr().String()
	c := &TCPClient{
		addr:         addr,
		sessions:     NewSessionPool(DefaultSmuxConfig(), nil),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	c.sessions.Add(addr, session)
	return c, nil
}

// Route sends req and waits for its response. Server-side failures come back
// both in the response and as a *protocol.RemoteError.
func (c *TCPClient) Route(ctx context.Context, req *protocol.RouteRequest) (*protocol.RouteResponse, error) {
	var resp protocol.RouteResponse
	if err := c.roundTrip(ctx, FrameRouteRequest, req, FrameRouteResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, resp.Err()
}

func (c *TCPClient) Status(ctx context.Context) (*protocol.StatusResponse, error) {
	var resp protocol.StatusResponse
	if err := c.roundTrip(ctx, FrameStatusRequest, protocol.StatusRequest{}, FrameStatusResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *TCPClient) Close() error {
	c.sessions.CloseAll()
	return nil
}

func (c *TCPClient) openStream() (*smux.Stream, error) {
	session, err := c.sessions.GetOrCreate(c.addr)
	if err != nil {
		return nil, err
	}
	stream, err := session.OpenStream()
	if err == nil {
		return stream, nil
	}

	// stale session, drop it and try once more
	log.Warnf("openStream: session to %s failed: %v", c.addr, err)
	c.sessions.Remove(c.addr, session)
	session, err = c.sessions.GetOrCreate(c.addr)
	if err != nil {
		return nil, err
	}
	return session.OpenStream()
}

func (c *TCPClient) roundTrip(ctx context.Context, reqType byte, req interface{}, respType byte, resp interface{}) error {
	stream, err := c.openStream()
	if err != nil {
		return fmt.Errorf("open stream to %s: %w", c.addr, err)
	}
	defer stream.Close()

	// closing the stream unblocks any pending read or write
	stop := context.AfterFunc(ctx, func() { stream.Close() })
	defer stop()

	if err := WriteJSON(stream, reqType, req); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("send request: %w", err))
	}
	frame, err := ReadFrame(stream, c.maxBodyBytes)
	if err != nil {
		return c.ctxErr(ctx, fmt.Errorf("read response: %w", err))
	}

	switch frame.FrameType {
	case respType:
		return frame.DecodeJSON(resp)
	case FrameError:
		var body errorBody
		if err := frame.DecodeJSON(&body); err != nil {
			return err
		}
		return &protocol.RemoteError{Code: body.Code, Message: body.Message}
	default:
		return fmt.Errorf("unexpected response frame type %d", frame.FrameType)
	}
}

// ctxErr prefers the context's error when it caused the failure
func (c *TCPClient) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
