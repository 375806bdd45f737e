// Package chat connects to a product's chat room over WebSocket. Delivery order is
// whatever the socket provides; there is no sequencing and no reconnect.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/oauth2"

	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
)

const (
	defaultHandshakeTimeout = 15 * time.Second
	writeTimeout            = 10 * time.Second
	inboxSize               = 64
	maxFrameBytes           = 64 << 10
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("chat connection closed")

// DialerOptions configures a Dialer.
type DialerOptions struct {
	// BaseURL is the ws:// or wss:// root of the API.
	BaseURL string
	// Tokens supplies the bearer credential. Nil dials anonymously.
	Tokens oauth2.TokenSource
	Logger *slog.Logger
}

// Dialer opens chat connections.
type Dialer struct {
	base   *url.URL
	tokens oauth2.TokenSource
	ws     *websocket.Dialer
	logger *slog.Logger
}

// NewDialer validates the base URL and returns a Dialer.
func NewDialer(opts DialerOptions) (*Dialer, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse websocket base url: %w", err)
	}
	if base.Scheme != "ws" && base.Scheme != "wss" {
		return nil, fmt.Errorf("websocket base url must be ws(s), got %q", opts.BaseURL)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{
		base:   base,
		tokens: opts.Tokens,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		logger: logger.With("component", "chat"),
	}, nil
}

// RoomURL returns the socket URL for a product's room.
func (d *Dialer) RoomURL(productID int64) string {
	u := *d.base
	u.Path = fmt.Sprintf("%s/ws/chat/room/%d/", strings.TrimRight(d.base.Path, "/"), productID)
	return u.String()
}

// Dial joins the chat room for productID.
func (d *Dialer) Dial(ctx context.Context, productID int64) (*Conn, error) {
	header := http.Header{}
	if d.tokens != nil {
		tok, err := d.tokens.Token()
		if err != nil {
			return nil, err
		}
		header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	}

	ws, resp, err := d.ws.DialContext(ctx, d.RoomURL(productID), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
			return nil, apperrors.FromResponse(resp.StatusCode, body)
		}
		return nil, apperrors.Network(err)
	}
	ws.SetReadLimit(maxFrameBytes)

	c := &Conn{
		ws:     ws,
		inbox:  make(chan model.ChatMessage, inboxSize),
		done:   make(chan struct{}),
		logger: d.logger.With("product_id", productID),
	}
	go c.readLoop()
	return c, nil
}

// Conn is one joined chat room.
type Conn struct {
	ws     *websocket.Conn
	inbox  chan model.ChatMessage
	done   chan struct{}
	logger *slog.Logger

	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error
	closeOnce sync.Once
}

// Messages delivers incoming messages. It is closed when the connection ends.
func (c *Conn) Messages() <-chan model.ChatMessage { return c.inbox }

// Err reports why the connection ended. It is nil while open and after a normal close.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conn) readLoop() {
	defer close(c.inbox)
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		var msg model.ChatMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			c.logger.Warn("skipping undecodable chat frame", "error", err, "bytes", len(frame))
			continue
		}
		select {
		case c.inbox <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) finish(err error) {
	select {
	case <-c.done:
		return
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	c.logger.Warn("chat connection lost", "error", err)
	c.errMu.Lock()
	c.err = apperrors.Network(err)
	c.errMu.Unlock()
}

// Send writes msg. A zero Datetime is stamped with the current time.
func (c *Conn) Send(ctx context.Context, msg model.ChatMessage) error {
	if strings.TrimSpace(msg.Message) == "" {
		return apperrors.ValidationField("message", "Message is required.")
	}
	if msg.Datetime.IsZero() {
		msg.Datetime = time.Now().UTC()
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return apperrors.Network(err)
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		return apperrors.Network(err)
	}
	return nil
}

// Close sends a close frame and releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second)); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) {
			c.logger.Debug("close frame not sent", "error", werr)
		}
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
