// Package signal carries the chat protocol over WebSocket: it owns the
// per-connection transport adapter and its read/write pumps.
package signal

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kathy/internal/app"
	"kathy/internal/config"
	"kathy/internal/core"
	"kathy/internal/domain"
)

// ChatController accepts upgraded chat connections and wires each one
// to its own dispatcher.
type ChatController struct {
	broker *app.Broker
	cfg    *config.Config
}

func NewChatController(broker *app.Broker, cfg *config.Config) *ChatController {
	return &ChatController{broker: broker, cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and runs the connection until it
// dies. The session id is per connection; the client token from the
// cookie only correlates reconnects in the logs.
func (ctl *ChatController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("ct", c.GetString("client_token")).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newWSConn(sock, ctl.cfg.SendBuffer)
	chatter := domain.NewChatter()
	sess := core.NewMemberSession(chatter, conn)
	disp := app.NewDispatcher(ctl.broker, sid, chatter, conn)

	ctx, cancel := context.WithCancel(ctx)
	ctl.broker.Bind(sid, sess, cancel)
	// Unblocks the read pump on shutdown or a broker-side drop; the
	// write pump stops through ctx directly.
	context.AfterFunc(ctx, conn.Close)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(sid, conn, disp)
	conn.Open()
}
