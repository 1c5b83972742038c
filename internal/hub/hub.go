package hub

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/player"
	"github.com/qrgame/qr-game-backend/internal/quiz"
	"github.com/qrgame/qr-game-backend/internal/room"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

type HubMsg interface{ isHubMsg() }

// CreateRoom spins up a room actor under a fresh code with the caller as
// owner. The hub owns the code namespace, so generation and the collision
// check happen in one place.
type CreateRoom struct {
	Owner player.Player
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the registry of live rooms, one actor per code. A code is never
// reused while its room is alive; rooms remove themselves on close.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	bank   *quiz.Bank
	timing room.Timing
	clock  clockwork.Clock
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, bank *quiz.Bank, timing room.Timing, clock clockwork.Clock, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		bank:   bank,
		timing: timing,
		clock:  clock,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code, err := h.freshCode()
				if err != nil {
					h.log.Error("code generation failed", zap.Error(err))
					msg.Reply <- nil
					break
				}
				rm := room.New(h.ctx, code, msg.Owner, h.bank.Sequence(), h.timing, h.clock, h.log, h.removeLater)
				h.rooms[code] = rm
				h.log.Info("room created", zap.String("room", code), zap.String("owner", msg.Owner.ID))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				delete(h.rooms, msg.Code)
				h.log.Info("room removed", zap.String("room", msg.Code))

			case ShutdownHub:
				for _, rm := range h.rooms {
					select {
					case rm.Inbox() <- room.Shutdown{}:
					case <-rm.Done():
					}
				}
				clear(h.rooms)
				h.cancel()
				return
			}
		}
	}
}

// removeLater is handed to each room as its close hook. The send happens off
// the room's goroutine to keep the two actor loops from waiting on each other.
func (h *Hub) removeLater(code string) {
	go func() {
		select {
		case h.inbox <- RemoveRoom{Code: code}:
		case <-h.ctx.Done():
		}
	}()
}

func (h *Hub) freshCode() (string, error) {
	for {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
		h.log.Warn("code collision, regenerating", zap.String("room", code))
	}
}

func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}
