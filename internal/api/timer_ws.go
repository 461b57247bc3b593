package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/timer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TimerMessage is exchanged over the timer WebSocket.
// Clients send start, pause and reset. The server sends state, completed and error.
type TimerMessage struct {
	Type    string          `json:"type"`
	Minutes int             `json:"minutes,omitempty"`
	State   *timer.State    `json:"state,omitempty"`
	Session *models.Session `json:"session,omitempty"`
	Message string          `json:"message,omitempty"`
}

// timerConn serializes writes to one WebSocket connection
type timerConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *timerConn) send(msg TimerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal timer message", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send timer message", "error", err)
		return err
	}
	return nil
}

func (c *timerConn) sendState(tm *timer.Timer) error {
	state := tm.State()
	return c.send(TimerMessage{Type: "state", State: &state})
}

func (c *timerConn) sendError(message string) {
	c.send(TimerMessage{Type: "error", Message: message})
}

func (s *Server) handleTimerWS(w http.ResponseWriter, r *http.Request) {
	pomodoroMinutes := models.DefaultPomodoroMinutes
	if settings, err := s.manager.Settings(r.Context()); err != nil {
		slog.Warn("failed to read settings for timer, using defaults", "error", err)
	} else {
		pomodoroMinutes = settings.PomodoroMinutes
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()

	conn := &timerConn{conn: ws}
	tm := timer.New(pomodoroMinutes, s.restMinutes)

	slog.Info("timer websocket connected", "pomodoro_minutes", pomodoroMinutes, "rest_minutes", s.restMinutes)

	if err := conn.sendState(tm); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Clock -> timer -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		ticker := time.NewTicker(s.timerTick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				switch tm.Tick() {
				case timer.EventNone:
					continue
				case timer.EventPomodoroCompleted:
					session, err := s.manager.RecordPomodoro(ctx)
					if err != nil {
						slog.Error("failed to record pomodoro", "error", err)
						conn.sendError("failed to record pomodoro")
					} else if err := conn.send(TimerMessage{Type: "completed", Session: session}); err != nil {
						return
					}
				}
				if err := conn.sendState(tm); err != nil {
					return
				}
			}
		}
	}()

	// WebSocket -> timer
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, message, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var msg TimerMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				slog.Debug("invalid message format", "error", err)
				conn.sendError("invalid message format")
				continue
			}

			switch msg.Type {
			case "start":
				tm.Start()
			case "pause":
				tm.Pause()
			case "reset":
				tm.Reset(msg.Minutes)
			default:
				conn.sendError("unknown message type: " + msg.Type)
				continue
			}

			if err := conn.sendState(tm); err != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	// Unblock the reader
	ws.Close()
	wg.Wait()
	slog.Info("timer websocket disconnected")
}
