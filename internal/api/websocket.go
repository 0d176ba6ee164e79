package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"intraday-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamTopics are the bus events forwarded to websocket clients.
var streamTopics = []events.Event{
	events.EventSignal,
	events.EventSignalRejected,
	events.EventPositionOpened,
	events.EventPositionClosed,
	events.EventManualReview,
	events.EventSessionHalted,
	events.EventSessionResumed,
}

type wsMessage struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	// Merge all stream topics onto one channel for this client.
	merged := make(chan wsMessage, 256)
	done := make(chan struct{})
	defer close(done)

	for _, topic := range streamTopics {
		stream, unsub := s.Bus.Subscribe(topic, 64)
		defer unsub()
		go func(topic events.Event, stream <-chan any) {
			for msg := range stream {
				select {
				case merged <- wsMessage{Topic: string(topic), Payload: msg}:
				case <-done:
					return
				}
			}
		}(topic, stream)
	}

	for msg := range merged {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
