package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/gateway"
	"github.com/atendesk/atendesk/internal/service"
)

const watchInterval = 30 * time.Second

// Background owns long-running goroutines that sit outside the request path:
// event handler registration and the WhatsApp connection watchdog.
type Background struct {
	notifications *service.NotificationService
	gateway       *gateway.Client
	logger        *zap.Logger
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewBackground wires the background workers. Either dependency may be nil.
func NewBackground(notifications *service.NotificationService, gw *gateway.Client, logger *zap.Logger) *Background {
	return &Background{
		notifications: notifications,
		gateway:       gw,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Start registers event handlers and launches the connection watchdog.
func (b *Background) Start(ctx context.Context) {
	if b.notifications != nil {
		b.notifications.RegisterHandlers()
	}

	ctx, b.cancel = context.WithCancel(ctx)
	go b.watchConnection(ctx)
}

// Stop terminates the watchdog and waits for it to exit.
func (b *Background) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}

// watchConnection polls the gateway connection state so operators can see
// disconnects in the logs. Conversations stay readable while the gateway
// reconnects, so state changes are logged rather than acted on.
func (b *Background) watchConnection(ctx context.Context) {
	defer close(b.done)
	if b.gateway == nil {
		return
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	lastState := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, err := b.gateway.ConnectionState(ctx)
			if err != nil {
				b.logger.Warn("gateway state check failed", zap.Error(err))
				continue
			}
			if state != lastState {
				b.logger.Info("gateway connection state",
					zap.String("state", state),
					zap.String("previous", lastState))
				lastState = state
			}
		}
	}
}
