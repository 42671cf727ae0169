package realtime

import (
	"net/http"
	"sync"
	"time"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/broadcast"
	"live-auction/internal/models"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client message types
const (
	MessageJoin  = "join_auction"
	MessageLeave = "leave_auction"
)

// EventError is sent back to a single connection when one of its messages is refused
const EventError models.EventType = "error"

// ClientMessage is what a connection sends to change its subscriptions
type ClientMessage struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id"`
}

type ErrorPayload struct {
	AuctionID string `json:"auction_id,omitempty"`
	Message   string `json:"message"`
}

// Rooms is the subscription side of the broadcast hub
type Rooms interface {
	Join(auctionID string, sub broadcast.Subscriber) int
	Leave(auctionID, subscriberID string) int
	LeaveAll(subscriberID string)
}

// AuctionFinder resolves an auction id before a connection may join it
type AuctionFinder interface {
	GetAuction(auctionID string) (models.Auction, error)
}

// Gateway upgrades HTTP requests to WebSocket connections, one subscriber per connection
type Gateway struct {
	rooms    Rooms
	auctions AuctionFinder
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway. originAllowed decides the Origin header check; nil allows any.
func NewGateway(rooms Rooms, auctions AuctionFinder, originAllowed func(origin string) bool) *Gateway {
	g := &Gateway{rooms: rooms, auctions: auctions}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || originAllowed == nil {
				return true
			}
			return originAllowed(origin)
		},
	}
	return g
}

// ServeWS handles GET /ws
func (g *Gateway) ServeWS(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		utils.Warn("realtime: upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	cl := &client{
		id:   utils.GeneratePrefixedID("conn"),
		conn: conn,
		send: make(chan models.Event, sendBuffer),
		done: make(chan struct{}),
	}
	utils.Info("realtime: connection opened", map[string]any{"connection_id": cl.id})

	go cl.writePump()
	g.readPump(cl)
}

func (g *Gateway) readPump(cl *client) {
	defer func() {
		g.rooms.LeaveAll(cl.id)
		cl.close()
		utils.Info("realtime: connection closed", map[string]any{"connection_id": cl.id})
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("realtime: read failed", map[string]any{"connection_id": cl.id, "error": err.Error()})
			}
			return
		}
		g.handle(cl, msg)
	}
}

func (g *Gateway) handle(cl *client, msg ClientMessage) {
	switch msg.Type {
	case MessageJoin:
		if _, err := g.auctions.GetAuction(msg.AuctionID); err != nil {
			cl.Send(errorEvent(msg.AuctionID, biddingerrors.Reason(err)))
			return
		}
		count := g.rooms.Join(msg.AuctionID, cl)
		utils.Debug("realtime: joined auction", map[string]any{
			"connection_id": cl.id,
			"auction_id":    msg.AuctionID,
			"viewers":       count,
		})
	case MessageLeave:
		g.rooms.Leave(msg.AuctionID, cl.id)
	default:
		cl.Send(errorEvent(msg.AuctionID, "unknown message type"))
	}
}

func errorEvent(auctionID, message string) models.Event {
	return models.Event{
		Type:      EventError,
		AuctionID: auctionID,
		Data:      ErrorPayload{AuctionID: auctionID, Message: message},
	}
}

// client is one WebSocket connection. Only writePump writes to conn.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) ID() string {
	return c.id
}

// Send queues ev for the writer; it never blocks and drops when the buffer is full
func (c *client) Send(ev models.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				utils.Warn("realtime: write failed", map[string]any{"connection_id": c.id, "error": err.Error()})
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
