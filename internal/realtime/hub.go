package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Hub 把变更事件扇出给所有已注册的 WebSocket 订阅者。慢消费者直接断开，
// 不允许拖慢广播循环。
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan ChangeEvent
	upgrader   websocket.Upgrader
}

// NewHub 创建事件中心，需调用 Run 启动广播循环。
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan ChangeEvent, 64),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Run drives the broadcast loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	subscribers := make(map[*subscriber]struct{})

	for {
		select {
		case <-ctx.Done():
			for sub := range subscribers {
				close(sub.send)
			}
			return
		case sub := <-h.register:
			subscribers[sub] = struct{}{}
		case sub := <-h.unregister:
			if _, ok := subscribers[sub]; ok {
				delete(subscribers, sub)
				close(sub.send)
			}
		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("[ws] failed to marshal change event: %v", err)
				continue
			}
			for sub := range subscribers {
				select {
				case sub.send <- payload:
				default:
					delete(subscribers, sub)
					close(sub.send)
				}
			}
		}
	}
}

// Publish 投递一条变更事件。广播队列满时丢弃并记日志，存储写入不等待推送。
func (h *Hub) Publish(event ChangeEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[ws] broadcast queue full, dropping %s event", event.Type)
	}
}

// ServeHTTP 把一个 HTTP 连接升级为订阅者。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	sub := &subscriber{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- sub

	go sub.writePump()
	go sub.readPump()
}

type subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump 只负责消费控制帧并发现断开，订阅者不发送业务数据。
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
