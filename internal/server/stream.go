package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/aristath/quantbench/internal/events"
)

const (
	// writeWait bounds a single websocket write or ping round-trip.
	writeWait = 10 * time.Second

	// heartbeatInterval keeps idle connections alive through proxies.
	heartbeatInterval = 30 * time.Second

	// streamBuffer is the per-connection event queue. A slow client drops
	// events instead of blocking the emitter.
	streamBuffer = 100
)

// handleRunStream handles GET /api/runs/stream. It upgrades to a websocket
// and pushes every bus event as a JSON message so clients can follow run
// progress live.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// The stream is write-only. CloseRead discards client frames and cancels
	// the context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan *events.Event, streamBuffer)
	s.bus.SubscribeAll(func(event *events.Event) {
		select {
		case eventChan <- event:
		case <-ctx.Done():
		default:
			s.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})

	s.log.Info().Msg("Client connected to run stream")

	// Initial connection message
	hello := map[string]interface{}{
		"type":    "connected",
		"version": Version,
	}
	if err := s.writeStreamMessage(ctx, conn, hello); err != nil {
		s.log.Debug().Err(err).Msg("Failed to send stream hello")
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Client disconnected from run stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := s.writeStreamMessage(ctx, conn, event); err != nil {
				s.log.Debug().Err(err).Msg("Failed to send event, closing stream")
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Info().Err(err).Msg("Heartbeat failed, closing stream")
				return
			}
		}
	}
}

// writeStreamMessage marshals a payload and writes it as one text frame.
func (s *Server) writeStreamMessage(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode stream message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}
