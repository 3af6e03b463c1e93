// Package remote turns a phone browser into an orientation source.
//
// The bridge serves a small page that asks the browser for orientation
// access and streams readings over a websocket. Session snapshots are pushed
// back so the phone can show the word to the room.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/orientation"
)

const (
	DefaultBind = "0.0.0.0"
	DefaultPort = 8642

	timeout      = 10 * time.Second
	sampleBuffer = 64
	sendBuffer   = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// inbound is a message sent by the phone page.
type inbound struct {
	Type  string   `json:"type"`
	Gamma *float64 `json:"gamma"`
	State string   `json:"state"`
}

// StateMessage is the snapshot view pushed to phones.
type StateMessage struct {
	Type          string `json:"type"`
	Phase         string `json:"phase"`
	Category      string `json:"category"`
	Word          string `json:"word,omitempty"`
	PrepTime      int    `json:"prepTime"`
	TimeRemaining int    `json:"timeRemaining"`
	Manual        bool   `json:"manual"`
	Correct       int    `json:"correct"`
	Total         int    `json:"total"`
}

type client struct {
	conn *websocket.Conn
	send chan StateMessage
}

// Bridge serves the phone page and collects its readings.
type Bridge struct {
	cfg    model.RemoteConfig
	logger zerolog.Logger

	samples chan model.Sample
	grants  chan orientation.PermissionState

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *StateMessage
	addr    net.Addr
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New returns a bridge for cfg. Zero fields fall back to the defaults.
func New(cfg model.RemoteConfig, opts ...Option) *Bridge {
	if cfg.Bind == "" {
		cfg.Bind = DefaultBind
	}
	b := &Bridge{
		cfg:     cfg,
		logger:  zerolog.Nop(),
		samples: make(chan model.Sample, sampleBuffer),
		grants:  make(chan orientation.PermissionState, 1),
		clients: map[*client]struct{}{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open implements orientation.Source.
func (b *Bridge) Open(context.Context) (<-chan model.Sample, error) {
	return b.samples, nil
}

// Permission waits for the phone to report the outcome of its own
// permission prompt.
func (b *Bridge) Permission() orientation.Permission {
	return orientation.RequiresAsyncGrant{Prompt: b.awaitPermission}
}

func (b *Bridge) awaitPermission(ctx context.Context) (orientation.PermissionState, error) {
	b.logger.Info().Msg("waiting for the phone to grant orientation access")
	select {
	case state := <-b.grants:
		return state, nil
	case <-ctx.Done():
		return orientation.PermissionDenied, ctx.Err()
	}
}

// Broadcast pushes s to every connected phone. Slow phones miss updates
// rather than block the caller.
func (b *Bridge) Broadcast(s model.SessionState) {
	msg := stateMessage(s)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &msg
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func stateMessage(s model.SessionState) StateMessage {
	msg := StateMessage{
		Type:          "state",
		Phase:         s.Phase().String(),
		Category:      s.Category.Name,
		PrepTime:      s.PrepTime,
		TimeRemaining: s.TimeRemaining,
		Manual:        s.ManualControl,
	}
	if s.Phase() == model.PhasePlaying {
		msg.Word, _ = s.CurrentWord()
	}
	for i, w := range s.Words {
		if i >= s.CurrentIndex {
			break
		}
		msg.Total++
		if w.Correct {
			msg.Correct++
		}
	}
	return msg
}

// Handler returns the bridge routes.
func (b *Bridge) Handler() http.Handler {
	mux := httprouter.New()
	mux.GET("/", b.serveIndex)
	mux.GET("/app.js", b.serveScript)
	mux.GET("/healthz", b.serveHealth)
	mux.GET("/ws", b.serveWS)
	return mux
}

// Listen binds the configured address. Port 0 picks a free port.
func (b *Bridge) Listen() (net.Listener, error) {
	addr := net.JoinHostPort(b.cfg.Bind, strconv.Itoa(b.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	b.mu.Lock()
	b.addr = ln.Addr()
	b.mu.Unlock()
	return ln, nil
}

// Serve answers phones on ln until ctx ends.
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: timeout,
	}

	errs := make(chan error, 1)
	go func() {
		b.logger.Info().Str("url", b.URL()).Msg("remote bridge listening")
		var err error
		if b.tls() {
			err = srv.ServeTLS(ln, b.cfg.TLSCert, b.cfg.TLSKey)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return fmt.Errorf("failed to serve remote bridge: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.closeClients()
	_ = srv.Shutdown(shutdownCtx)
	b.logger.Debug().Msg("remote bridge stopped")
	return nil
}

func (b *Bridge) tls() bool {
	return b.cfg.TLSCert != "" && b.cfg.TLSKey != ""
}

// URL is the address phones should open. A wildcard bind is replaced with
// the first private address of this host.
func (b *Bridge) URL() string {
	b.mu.Lock()
	addr := b.addr
	b.mu.Unlock()

	host := b.cfg.Bind
	port := strconv.Itoa(b.cfg.Port)
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = localIP()
	}
	scheme := "http"
	if b.tls() {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(host, port) + "/"
}

// QR renders the bridge URL as a terminal QR code.
func (b *Bridge) QR() (string, error) {
	code, err := qrcode.New(b.URL(), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	var fallback string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil {
			continue
		}
		if ip.IsPrivate() {
			return ip.String()
		}
		if fallback == "" {
			fallback = ip.String()
		}
	}
	if fallback != "" {
		return fallback
	}
	return "127.0.0.1"
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan StateMessage, sendBuffer)}
	b.register(c)
	b.logger.Info().Str("remote", r.RemoteAddr).Msg("phone connected")

	go c.writePump()
	b.readPump(c)
	b.logger.Info().Str("remote", r.RemoteAddr).Msg("phone disconnected")
}

func (b *Bridge) register(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = struct{}{}
	if b.last != nil {
		c.send <- *b.last
	}
}

func (b *Bridge) unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Bridge) closeClients() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(b.clients, c)
	}
}

func (b *Bridge) readPump(c *client) {
	defer func() {
		b.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug().Err(err).Msg("ignoring malformed phone message")
			continue
		}
		b.handle(msg)
	}
}

func (b *Bridge) handle(msg inbound) {
	switch msg.Type {
	case "orientation":
		select {
		case b.samples <- model.Sample{Gamma: msg.Gamma}:
		default:
		}
	case "permission":
		state := orientation.ParsePermissionState(msg.State)
		b.logger.Info().Stringer("state", state).Msg("phone answered permission prompt")
		// Only the latest answer matters.
		b.mu.Lock()
		select {
		case <-b.grants:
		default:
		}
		b.grants <- state
		b.mu.Unlock()
	default:
		// ignore unknown types
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
