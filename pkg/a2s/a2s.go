package a2s

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBufferSize is the read buffer size for response datagrams.
// 1400 fits a single non-split packet on a standard MTU.
const DefaultBufferSize uint16 = 1400

// Client is a query connection to one game server. It owns the UDP
// socket, the cached challenge token and one pending slot per response
// kind, so at most one logical request of each kind is in flight.
//
// All request methods return immediately with a Pending handle; results
// are delivered only by the read loop. There are no timeouts or retries
// inside the client: if a reply is lost the handle stays unresolved and
// the caller's Wait context is the only bound. Close does not resolve
// outstanding handles.
type Client struct {
	conn *net.UDPConn
	log  zerolog.Logger

	mu         sync.Mutex
	challenge  []byte
	pChallenge *Pending[[]byte]
	pInfo      *Pending[*ServerInfo]
	pPlayers   *Pending[[]Player]
	pRules     *Pending[map[string]string]
	closed     bool
}

// New resolves host (name or literal IP), dials the server from an
// ephemeral local port and starts the read loop. A successful return
// does not mean the server is reachable; UDP has no handshake.
func New(host string, port int) (*Client, error) {
	return NewFrom(host, port, 0)
}

// NewFrom is New with an explicit local port (0 means ephemeral).
func NewFrom(host string, port, localPort int) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	var laddr *net.UDPAddr
	if localPort != 0 {
		laddr = &net.UDPAddr{Port: localPort}
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn: conn,
		log:  log.With().Str("server", raddr.String()).Logger(),
	}
	go c.readLoop()

	return c, nil
}

// Close releases the socket and stops the read loop. Pending handles
// that have not resolved stay unresolved; requests made after Close
// return handles already rejected with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return c.conn.Close()
}

// RemoteAddr returns the queried server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Info requests A2S_INFO. If an info request is already outstanding the
// same handle is returned and nothing is sent.
func (c *Client) Info() *Pending[*ServerInfo] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return rejected[*ServerInfo](ErrClosed)
	}
	if c.pInfo != nil {
		return c.pInfo
	}

	c.pInfo = newPending[*ServerInfo]()
	c.send(infoRequest())

	return c.pInfo
}

// Players requests A2S_PLAYER. The handle is created immediately; the
// wire request goes out once the challenge token is available, so calls
// made while the challenge is still pending coalesce onto one handle
// with no duplicate traffic.
func (c *Client) Players() *Pending[[]Player] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return rejected[[]Player](ErrClosed)
	}
	if c.pPlayers != nil {
		return c.pPlayers
	}

	p := newPending[[]Player]()
	c.pPlayers = p
	c.withChallenge(
		func(token []byte) {
			if c.pPlayers == p {
				c.send(playersRequest(token))
			}
		},
		func(err error) {
			if c.pPlayers == p {
				c.pPlayers = nil
				p.reject(err)
			}
		},
	)

	return p
}

// Rules requests A2S_RULES, with the same challenge coalescing as
// Players.
func (c *Client) Rules() *Pending[map[string]string] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return rejected[map[string]string](ErrClosed)
	}
	if c.pRules != nil {
		return c.pRules
	}

	p := newPending[map[string]string]()
	c.pRules = p
	c.withChallenge(
		func(token []byte) {
			if c.pRules == p {
				c.send(rulesRequest(token))
			}
		},
		func(err error) {
			if c.pRules == p {
				c.pRules = nil
				p.reject(err)
			}
		},
	)

	return p
}

// GetInfo is a blocking convenience wrapper around Info.
func (c *Client) GetInfo(ctx context.Context) (*ServerInfo, error) {
	return c.Info().Wait(ctx)
}

// GetPlayers is a blocking convenience wrapper around Players.
func (c *Client) GetPlayers(ctx context.Context) ([]Player, error) {
	return c.Players().Wait(ctx)
}

// GetRules is a blocking convenience wrapper around Rules.
func (c *Client) GetRules(ctx context.Context) (map[string]string, error) {
	return c.Rules().Wait(ctx)
}

// withChallenge runs send once the challenge token is known, issuing at
// most one challenge request per connection. fail is called under the
// client lock if the challenge itself cannot be decoded. Called with
// c.mu held.
func (c *Client) withChallenge(send func(token []byte), fail func(err error)) {
	if c.challenge != nil {
		send(c.challenge)
		return
	}

	ch := c.pChallenge
	if ch == nil {
		ch = newPending[[]byte]()
		c.pChallenge = ch
		c.send(challengeRequest())
	}

	go func() {
		<-ch.Done()
		token, err := ch.Result()

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			fail(err)
			return
		}
		send(token)
	}()
}

// send writes one request datagram. A write failure is logged and the
// request is left pending, same as a datagram lost in transit.
func (c *Client) send(pkt []byte) {
	if _, err := c.conn.Write(pkt); err != nil {
		c.log.Debug().Err(err).Msg("Failed to send query request")
	}
}

// readLoop is the dispatcher: one datagram per iteration, routed by its
// type tag to the matching parser and pending slot. It exits only when
// the socket is closed; decode failures are delivered to the owning
// slot (or logged if unattributable) and the loop keeps going.
func (c *Client) readLoop() {
	buf := make([]byte, DefaultBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Debug().Err(err).Msg("Query socket read failed")
			}
			return
		}
		c.dispatch(buf[:n])
	}
}

func (c *Client) dispatch(pkt []byte) {
	if len(pkt) < 5 || !bytes.Equal(pkt[:4], marker) {
		// Cannot be attributed to any pending request.
		c.log.Debug().Err(ErrBadMarker).Msg("Dropping datagram")
		return
	}

	tag, payload := pkt[4], pkt[5:]
	switch tag {
	case tagInfo:
		info, err := parseInfo(payload)
		resolveSlot(c, &c.pInfo, info, err)
	case tagChallenge:
		token, err := parseChallenge(payload)
		if err == nil {
			c.mu.Lock()
			c.challenge = token
			c.mu.Unlock()
		}
		resolveSlot(c, &c.pChallenge, token, err)
	case tagPlayers:
		players, err := parsePlayers(payload)
		resolveSlot(c, &c.pPlayers, players, err)
	case tagRules:
		rules, err := parseRules(payload)
		resolveSlot(c, &c.pRules, rules, err)
	default:
		c.log.Debug().Err(&UnknownTagError{Tag: tag}).Msg("Dropping datagram")
	}
}

// resolveSlot clears the pending slot and delivers the decoded result
// or the decode error to it. A response with no waiting request is
// dropped with a log line.
func resolveSlot[T any](c *Client, slot **Pending[T], v T, err error) {
	c.mu.Lock()
	p := *slot
	*slot = nil
	c.mu.Unlock()

	if p == nil {
		c.log.Debug().Err(err).Msg("Response without pending request")
		return
	}
	if err != nil {
		p.reject(err)
		return
	}
	p.resolve(v)
}
