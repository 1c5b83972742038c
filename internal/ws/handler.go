package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/game"
	"github.com/qrgame/qr-game-backend/internal/hub"
	"github.com/qrgame/qr-game-backend/internal/room"
	"github.com/qrgame/qr-game-backend/internal/types"
)

// Handler is the event channel endpoint. A connection subscribes to a room
// topic with a joinRoom message and from then on receives every push for that
// room; startGame and answer flow the other way into the room actor.
func Handler(h *hub.Hub, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := randID(8)
		clog := log.With(zap.String("client", clientID))

		var subscribed *room.Room
		defer func() {
			if subscribed != nil {
				send(subscribed, room.Unsubscribe{ClientID: clientID})
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			switch cm.Type {
			case "joinRoom":
				target := lookupRoom(h, cm.Room())
				if target == nil {
					writeError(r.Context(), conn, "room not found")
					continue
				}
				if subscribed != nil && subscribed != target {
					send(subscribed, room.Unsubscribe{ClientID: clientID})
				}
				subscribed = target

				// Fresh outbox per subscribe; the room closes the previous
				// one, which stops the previous writer.
				out := make(chan types.ServerMessage, 16)
				send(target, room.Subscribe{ClientID: clientID, Outbox: out})
				go writer(writeCtx, conn, out, clog)

			case "startGame":
				target := lookupRoom(h, cm.Room())
				if target == nil {
					writeError(r.Context(), conn, "room not found")
					continue
				}
				send(target, room.FromClient{Cmd: game.Command{
					Type:     game.CmdStartGame,
					PlayerID: cm.PlayerID,
				}})

			case "answer":
				target := lookupRoom(h, cm.Room())
				if target == nil || cm.ChosenIndex == nil {
					continue
				}
				// Validation happens in the room actor; a rejected answer is
				// a silent no-op, never an open door for a non-active player.
				send(target, room.FromClient{Cmd: game.Command{
					Type:        game.CmdSubmitAnswer,
					PlayerID:    cm.PlayerID,
					ChosenIndex: *cm.ChosenIndex,
				}})

			default:
				writeError(r.Context(), conn, "unknown type")
			}
		}
	}
}

func writer(ctx context.Context, conn *websocket.Conn, out <-chan types.ServerMessage, log *zap.Logger) {
	for msg := range out {
		payload, err := json.Marshal(msg)
		if err != nil {
			log.Error("marshal push", zap.Error(err))
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			return
		}
	}
}

// send delivers m unless the room has already shut down; a closed room's
// mailbox is never drained, so a bare channel send could block forever.
func send(target *room.Room, m room.Msg) {
	select {
	case target.Inbox() <- m:
	case <-target.Done():
	}
}

func lookupRoom(h *hub.Hub, code string) *room.Room {
	if code == "" {
		return nil
	}
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	return <-reply
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
