package server

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Sternrassler/pokedex/pkg/metrics"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// rotationMessage is pushed to carousel clients.
type rotationMessage struct {
	Index int `json:"index"`
}

// carouselCommand is sent by a client clicking a carousel dot.
type carouselCommand struct {
	Select *int `json:"select"`
}

// featuredSocket streams the carousel index: the current one on connect,
// then every rotation.
func (s *Server) featuredSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WebsocketConnected(1)
	defer metrics.WebsocketConnected(-1)

	updates, unsubscribe := s.svc.Rotator.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go s.readCarouselCommands(conn, closed)

	if err := writeRotation(conn, s.svc.Rotator.Current()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case idx, ok := <-updates:
			if !ok {
				return
			}
			if err := writeRotation(conn, idx); err != nil {
				s.logger.Debug().Err(err).Msg("Websocket write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readCarouselCommands applies dot selections until the connection closes.
func (s *Server) readCarouselCommands(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Websocket closed")
			}
			return
		}

		var cmd carouselCommand
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Select == nil {
			continue
		}
		s.svc.Rotator.Select(*cmd.Select)
	}
}

func writeRotation(conn *websocket.Conn, idx int) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(rotationMessage{Index: idx})
}
