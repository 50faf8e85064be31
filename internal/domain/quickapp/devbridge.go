package quickapp

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/shared/types"
)

// DevBridge watches a local quick-app dev server and reinstalls the
// document on every change notification. One subscription per bridge:
// Start is idempotent while a session is running, and the reconnect
// loop never stacks a second reader on the same endpoint.
type DevBridge struct {
	registry *Registry
	devURL   string
	backoff  time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

type bridgeEvent struct {
	Type string `json:"type"`
	File string `json:"file,omitempty"`
}

// NewDevBridge creates a bridge against one dev server base URL.
func NewDevBridge(registry *Registry, devURL string, backoff time.Duration, logger *logging.Logger) *DevBridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	if backoff <= 0 {
		backoff = 3 * time.Second
	}
	return &DevBridge{
		registry: registry,
		devURL:   strings.TrimRight(devURL, "/"),
		backoff:  backoff,
		logger:   logger,
	}
}

// Start begins the watch loop. Calling Start on a running bridge is a
// no-op so repeated toggles cannot create duplicate subscriptions.
func (b *DevBridge) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.running = true
	go b.loop(ctx)
}

// Stop ends the watch loop and closes the connection.
func (b *DevBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.cancel()
	b.running = false
}

// loop connects, reads events, and reconnects on a fixed backoff.
// Backoff stays fixed rather than exponential: the dev server restarts
// constantly during normal use and should be re-acquired quickly.
func (b *DevBridge) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := b.session(ctx); err != nil && ctx.Err() == nil {
			b.logger.Debug("dev bridge disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.backoff):
		}
	}
}

func (b *DevBridge) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.socketURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	b.logger.Info("dev bridge connected", zap.String("url", b.devURL))

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event bridgeEvent
		if err := sonic.Unmarshal(payload, &event); err != nil {
			b.logger.Debug("dev bridge ignored malformed event", zap.Error(err))
			continue
		}
		if event.Type != "reload" {
			continue
		}
		b.reload(ctx)
	}
}

// reload fetches the current document and reinstalls it. Failures are
// logged and the previous installation stays live.
func (b *DevBridge) reload(ctx context.Context) {
	docURL := b.devURL + "/app.md"
	inst, err := b.registry.InstallFromURL(ctx, docURL)
	if err != nil {
		b.logger.Warn("dev bridge reload failed", zap.Error(err))
		return
	}
	b.logger.Info("dev bridge reloaded app",
		zap.String("app_id", inst.Compiled.Parsed.ID),
		zap.String("origin", string(types.OriginURL)),
	)
}

func (b *DevBridge) socketURL() string {
	u, err := url.Parse(b.devURL)
	if err != nil {
		return b.devURL + "/__quick-app-hmr"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/__quick-app-hmr"
	return u.String()
}
