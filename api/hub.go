package api

import (
	"encoding/json"

	"go.uber.org/zap"

	"matchbook/service"
)

// Hub fans market-data events out to connected WebSocket clients. It
// implements service.EventSink; events arrive on the gateway's writer
// goroutine and are handed off through a buffered channel, dropping
// under backpressure rather than stalling the engine.
type Hub struct {
	log  *zap.Logger
	conv PriceConverter

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

type wsEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log *zap.Logger, conv PriceConverter) *Hub {
	return &Hub{
		log:        log.Named("ws-hub"),
		conv:       conv,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set; register, unregister, and broadcast all go
// through this loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.log.Info("client connected", zap.Int("total", len(h.clients)))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.log.Info("client disconnected", zap.Int("total", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than buffer forever.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// PublishTrade implements service.EventSink.
func (h *Hub) PublishTrade(ev service.TradeEvent) {
	h.push("trade", tradeEventJSON{
		Symbol:  ev.Symbol,
		Seq:     ev.Seq,
		TakerID: ev.TakerID,
		MakerID: ev.MakerID,
		Price:   h.conv.FromTicks(ev.Price),
		Qty:     ev.Qty,
		At:      ev.At,
	})
}

// PublishDepth implements service.EventSink.
func (h *Hub) PublishDepth(ev service.DepthEvent) {
	h.push("depth", h.conv.depthJSON(ev.Symbol, ev.Depth))
}

func (h *Hub) push(kind string, data interface{}) {
	msg, err := json.Marshal(wsEnvelope{Type: kind, Data: data})
	if err != nil {
		h.log.Error("marshal ws event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}
