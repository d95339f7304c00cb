package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeDeadline    = 5 * time.Second
	requestTimeout   = 10 * time.Second
	maxReconnectWait = 30 * time.Second
	subscriberBuffer = 64
)

// Client is the websocket connection to the chat gateway. It serializes
// writes, correlates request frames to their acks by Seq, reconnects with
// exponential backoff, and fans inbound private/channel messages out to
// subscribers. Subscribers that fall behind lose messages rather than
// blocking the read loop.
type Client struct {
	url      string
	email    string
	password string

	// conn is swapped by the reconnect path while senders read it
	conn   atomic.Pointer[websocket.Conn]
	closed atomic.Bool

	seq  uint32
	mu   sync.Mutex
	acks map[uint32]chan Envelope

	wmu sync.Mutex

	subMu       sync.Mutex
	privateSubs map[chan Message]struct{}
	channelSubs map[chan Message]struct{}

	// OnConnected fires after every successful (re)connect and login,
	// before any frames from the new connection are dispatched.
	OnConnected func()
}

func New(url, email, password string) *Client {
	return &Client{
		url:         url,
		email:       email,
		password:    password,
		acks:        make(map[uint32]chan Envelope),
		privateSubs: make(map[chan Message]struct{}),
		channelSubs: make(map[chan Message]struct{}),
	}
}

// Connect dials the gateway, logs in, and starts the read loop. The read
// loop keeps reconnecting until ctx is cancelled or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dialAndLogin(ctx)
	if err != nil {
		return err
	}
	c.conn.Store(conn)
	if c.OnConnected != nil {
		c.OnConnected()
	}
	go c.readLoop(ctx)
	return nil
}

func (c *Client) Close() {
	c.closed.Store(true)
	c.closeConn()
}

func (c *Client) dialAndLogin(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}
	body, _ := json.Marshal(LoginBody{Email: c.email, Password: c.password})
	if err := c.writeFrame(conn, Envelope{Command: CmdLogin, Body: body}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send login: %w", err)
	}
	return conn, nil
}

func (c *Client) writeFrame(conn *websocket.Conn, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) nextSeq() uint32 {
	return atomic.AddUint32(&c.seq, 1)
}

// request sends a frame and waits for the gateway ack carrying the same
// Seq.
func (c *Client) request(ctx context.Context, command string, body any) (Envelope, error) {
	conn := c.conn.Load()
	if conn == nil {
		return Envelope{}, fmt.Errorf("not connected")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, err
	}
	seq := c.nextSeq()
	ch := make(chan Envelope, 1)
	c.mu.Lock()
	c.acks[seq] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.acks, seq)
		c.mu.Unlock()
	}()

	if err := c.writeFrame(conn, Envelope{Command: command, Seq: seq, Body: raw}); err != nil {
		return Envelope{}, err
	}
	select {
	case env := <-ch:
		return env, nil
	case <-time.After(requestTimeout):
		return Envelope{}, fmt.Errorf("%s: ack timeout", command)
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, recipient int64, isGroup bool, text string) error {
	env, err := c.request(ctx, CmdMessageSend, SendBody{Recipient: recipient, IsGroup: isGroup, Data: text})
	if err != nil {
		return err
	}
	var ack AckBody
	if err := json.Unmarshal(env.Body, &ack); err != nil {
		return fmt.Errorf("decode send ack: %w", err)
	}
	if ack.Code != 0 {
		return fmt.Errorf("send rejected: %s", ack.Message)
	}
	return nil
}

func (c *Client) SendPrivate(ctx context.Context, recipientID int64, text string) error {
	return c.send(ctx, recipientID, false, text)
}

func (c *Client) SendChannel(ctx context.Context, channelID int64, text string) error {
	return c.send(ctx, channelID, true, text)
}

// ListChannels returns the channels the logged-in account is a member of.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	env, err := c.request(ctx, CmdGroupList, struct{}{})
	if err != nil {
		return nil, err
	}
	var body GroupListBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, fmt.Errorf("decode group list: %w", err)
	}
	return body.Groups, nil
}

func (c *Client) SubscribePrivate() chan Message {
	ch := make(chan Message, subscriberBuffer)
	c.subMu.Lock()
	c.privateSubs[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

func (c *Client) UnsubscribePrivate(ch chan Message) {
	c.subMu.Lock()
	delete(c.privateSubs, ch)
	c.subMu.Unlock()
}

func (c *Client) SubscribeChannel() chan Message {
	ch := make(chan Message, subscriberBuffer)
	c.subMu.Lock()
	c.channelSubs[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

func (c *Client) UnsubscribeChannel(ch chan Message) {
	c.subMu.Lock()
	delete(c.channelSubs, ch)
	c.subMu.Unlock()
}

func (c *Client) readLoop(ctx context.Context) {
	go func() {
		<-ctx.Done()
		c.closeConn()
	}()

	backoff := time.Second
	for {
		if c.closed.Load() {
			return
		}
		conn := c.conn.Load()
		if conn != nil {
			_, data, err := conn.ReadMessage()
			if err == nil {
				var env Envelope
				if uerr := json.Unmarshal(data, &env); uerr != nil {
					log.Warn().Err(uerr).Msg("chat: bad frame")
					continue
				}
				c.dispatch(env)
				backoff = time.Second
				continue
			}
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("chat: read failed, reconnecting")
		}

		c.closeConn()
		c.failPendingAcks()

		for !c.closed.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			conn, err := c.dialAndLogin(ctx)
			if err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("chat: reconnect failed")
				backoff *= 2
				if backoff > maxReconnectWait {
					backoff = maxReconnectWait
				}
				continue
			}
			c.conn.Store(conn)
			backoff = time.Second
			if c.OnConnected != nil {
				c.OnConnected()
			}
			break
		}
	}
}

// dispatch routes a frame either to the ack waiter registered for its Seq
// or, for unsolicited message frames, to the event subscribers.
func (c *Client) dispatch(env Envelope) {
	if env.Seq != 0 {
		c.mu.Lock()
		ch, ok := c.acks[env.Seq]
		if ok {
			delete(c.acks, env.Seq)
		}
		c.mu.Unlock()
		if ok {
			ch <- env
			return
		}
	}
	if env.Command != CmdMessageSend {
		return
	}
	var body InboundBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		log.Warn().Err(err).Msg("chat: bad inbound message body")
		return
	}
	msg := Message{SenderID: body.Originator, Private: !body.IsGroup, Body: body.Data}
	if body.IsGroup {
		msg.ChannelID = body.Recipient
	}
	c.fanOut(msg)
}

func (c *Client) fanOut(msg Message) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	subs := c.channelSubs
	if msg.Private {
		subs = c.privateSubs
	}
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			// slow subscriber, drop
		}
	}
}

func (c *Client) failPendingAcks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seq, ch := range c.acks {
		body, _ := json.Marshal(AckBody{Code: 1, Message: "connection lost"})
		select {
		case ch <- Envelope{Seq: seq, Body: body}:
		default:
		}
		delete(c.acks, seq)
	}
}

// closeConn detaches and closes the current connection. The swap makes
// it safe to call from the ctx watcher, the read loop, and Close at the
// same time; only one caller gets the connection to tear down.
func (c *Client) closeConn() {
	conn := c.conn.Swap(nil)
	if conn == nil {
		return
	}
	c.wmu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	_ = conn.Close()
}
