package room

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/game"
	"github.com/qrgame/qr-game-backend/internal/player"
	"github.com/qrgame/qr-game-backend/internal/quiz"
	"github.com/qrgame/qr-game-backend/internal/types"
)

var ErrRoomClosed = errors.New("room is not accepting joins")

type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusInGame  Status = "IN_GAME"
	StatusClosed  Status = "CLOSED"
)

// Timing is the phase-duration policy plus room lifecycle timeouts.
type Timing struct {
	Think      time.Duration
	Answer     time.Duration
	Result     time.Duration
	CloseGrace time.Duration // room lives this long after the quiz ends
	Idle       time.Duration // empty waiting room is collected after this
}

func DefaultTiming() Timing {
	return Timing{
		Think:      5 * time.Second,
		Answer:     15 * time.Second,
		Result:     5 * time.Second,
		CloseGrace: 30 * time.Second,
		Idle:       5 * time.Minute,
	}
}

type Msg interface{ isRoomMsg() }

// Join adds a player to the roster. Idempotent: rejoining after a disconnect
// neither duplicates nor reorders the membership.
type Join struct {
	Player player.Player
	Reply  chan error
}

func (Join) isRoomMsg() {}

// Subscribe attaches a connection's outbox to the room topic. A subscriber
// arriving mid-session gets the current round's pushes replayed so a
// reconnect can catch up without waiting for the next natural push.
type Subscribe struct {
	ClientID string
	Outbox   chan types.ServerMessage
}

func (Subscribe) isRoomMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isRoomMsg() {}

type FromClient struct {
	Cmd game.Command
}

func (FromClient) isRoomMsg() {}

// Members is the pure roster read behind GET /room/players/{code}. Safe to
// poll; it reads the same state the push layer broadcasts from.
type Members struct {
	Reply chan Roster
}

func (Members) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type timerFired struct{ gen int }

func (timerFired) isRoomMsg() {}

type idleFired struct{ gen int }

func (idleFired) isRoomMsg() {}

type Roster struct {
	OwnerID string
	Players []player.Player
	Status  Status
}

// Room is a single-writer actor: every mutation of the roster or session
// state happens in loop(), so an early answer and a deadline expiry can never
// double-apply a transition. Rooms are fully independent of each other.
type Room struct {
	code    string
	owner   player.Player
	timing  Timing
	clock   clockwork.Clock
	log     *zap.Logger
	onClose func(code string)

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc

	status  Status
	members []player.Player
	state   game.State
	subs    map[string]chan types.ServerMessage
	seq     int

	timer    clockwork.Timer
	timerGen int
	idleGen  int

	// current-round pushes kept for subscriber catch-up, original seq intact
	lastQuestion *types.ServerMessage
	lastPhase    *types.ServerMessage
	lastResult   *types.ServerMessage
	lastEnd      *types.ServerMessage
}

func New(
	parent context.Context,
	code string,
	owner player.Player,
	questions []quiz.Question,
	timing Timing,
	clock clockwork.Clock,
	log *zap.Logger,
	onClose func(code string),
) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		code:    code,
		owner:   owner,
		timing:  timing,
		clock:   clock,
		log:     log.With(zap.String("room", code)),
		onClose: onClose,
		inbox:   make(chan Msg, 64),
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusWaiting,
		members: []player.Player{owner},
		state:   game.NewState(owner.ID, questions),
		subs:    make(map[string]chan types.ServerMessage),
	}

	r.armIdle()
	go r.loop()
	return r
}

func (r *Room) Code() string { return r.code }

// Inbox exposes the actor mailbox to the ws layer, the HTTP handlers and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room has shut down; senders use it to avoid
// blocking on a mailbox nobody drains anymore.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.handleJoin(msg.Player)

			case Subscribe:
				r.handleSubscribe(msg)

			case Unsubscribe:
				if ch, ok := r.subs[msg.ClientID]; ok {
					close(ch) // lets the connection's writer exit
					delete(r.subs, msg.ClientID)
				}
				if len(r.subs) == 0 && r.status != StatusInGame {
					r.armIdle()
				}

			case FromClient:
				r.handleCommand(msg.Cmd)

			case Members:
				players := make([]player.Player, len(r.members))
				copy(players, r.members)
				msg.Reply <- Roster{OwnerID: r.owner.ID, Players: players, Status: r.status}

			case timerFired:
				if msg.gen != r.timerGen {
					break // round already advanced via early answer
				}
				switch r.status {
				case StatusInGame:
					r.handleCommand(game.Command{Type: game.CmdTimeoutAdvance})
				case StatusClosed:
					r.shutdown()
					return
				}

			case idleFired:
				if msg.gen == r.idleGen && len(r.subs) == 0 && r.status != StatusInGame {
					r.log.Info("collecting idle room")
					r.shutdown()
					return
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(p player.Player) error {
	if r.status != StatusWaiting {
		return ErrRoomClosed
	}
	for _, m := range r.members {
		if m.ID == p.ID {
			return nil // rejoin after disconnect: keep size and order
		}
	}
	r.members = append(r.members, p)
	r.log.Info("player joined", zap.String("player", p.ID), zap.Int("members", len(r.members)))
	return nil
}

func (r *Room) handleSubscribe(msg Subscribe) {
	r.idleGen++ // no longer idle
	if old, ok := r.subs[msg.ClientID]; ok && old != msg.Outbox {
		close(old) // re-subscribe replaces the outbox; let the old writer exit
	}
	r.subs[msg.ClientID] = msg.Outbox

	// Catch-up for reconnects: replay the current round as it stands, in the
	// order it was produced (answerResult precedes the RESULT phase push).
	// The original seq lets the client discard anything it already saw.
	if r.status == StatusWaiting {
		return
	}
	for _, stored := range []*types.ServerMessage{r.lastQuestion, r.lastResult, r.lastPhase, r.lastEnd} {
		if stored == nil {
			continue
		}
		select {
		case msg.Outbox <- *stored:
		default:
		}
	}
}

// handleCommand is the only place session state advances. Rejections are
// deliberate no-ops at this boundary: authority is server-side, and a stale
// or unauthorized action must not disturb the room.
func (r *Room) handleCommand(cmd game.Command) {
	if cmd.Type == game.CmdStartGame && cmd.Members == nil {
		cmd.Members = r.memberSnapshot()
	}

	events, next, err := game.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command rejected",
			zap.String("cmd", string(cmd.Type)),
			zap.String("player", cmd.PlayerID),
			zap.Error(err))
		return
	}

	r.state = next
	for _, ev := range events {
		r.dispatch(ev)
	}
}

func (r *Room) dispatch(ev game.Event) {
	switch ev.Type {
	case game.EvtGameStarted:
		r.status = StatusInGame
		r.push("gameStart", nil)
		r.log.Info("session started", zap.Int("members", len(r.members)))

	case game.EvtRoundStarted:
		q := r.state.Questions[ev.Index]
		msg := r.push("questionData", q.Public())
		r.lastQuestion = &msg
		r.lastResult = nil

	case game.EvtPhaseChanged:
		d := r.phaseDuration(ev.Phase)
		payload := types.PhasePayload{
			Type:             string(ev.Phase),
			QuestionIndex:    ev.Index,
			ActivePlayerID:   ev.Active.ID,
			ActivePlayerName: ev.Active.Name,
			Duration:         d.Milliseconds(),
			StartTime:        r.clock.Now().UnixMilli(),
		}
		msg := r.push("phase", payload)
		r.lastPhase = &msg
		r.armTimer(d)

	case game.EvtAnswerResolved:
		msg := r.push("answerResult", types.AnswerResultPayload{
			CorrectIndex: ev.CorrectIndex,
			ChosenIndex:  ev.Chosen,
		})
		r.lastResult = &msg

	case game.EvtQuizEnded:
		msg := r.push("quizEnd", types.QuizEndPayload{Score: ev.Score, Success: ev.Success})
		r.lastEnd = &msg
		r.status = StatusClosed
		r.armTimer(r.timing.CloseGrace)
		r.log.Info("session ended", zap.Int("score", ev.Score), zap.Bool("success", ev.Success))
	}
}

func (r *Room) phaseDuration(p game.Phase) time.Duration {
	switch p {
	case game.PhaseThink:
		return r.timing.Think
	case game.PhaseAnswer:
		return r.timing.Answer
	default:
		return r.timing.Result
	}
}

func (r *Room) push(event string, data any) types.ServerMessage {
	r.seq++
	msg := types.ServerMessage{Type: event, Seq: r.seq, Data: data}
	r.broadcast(msg)
	return msg
}

func (r *Room) broadcast(msg types.ServerMessage) {
	for id, ch := range r.subs {
		select {
		case ch <- msg:
		default:
			// Slow or dead subscriber: drop it. It will re-subscribe and
			// catch up via the replay on Subscribe.
			close(ch)
			delete(r.subs, id)
		}
	}
}

func (r *Room) memberSnapshot() []game.Member {
	snap := make([]game.Member, len(r.members))
	for i, p := range r.members {
		snap[i] = game.Member{ID: p.ID, Name: p.FullName()}
	}
	return snap
}

// armTimer schedules the next deadline, invalidating any pending one. A fire
// from a previous generation is ignored in loop(), so an early answer racing
// the old deadline is a no-op rather than a double transition.
func (r *Room) armTimer(d time.Duration) {
	if r.timer != nil {
		stopAndDrain(r.timer)
	}
	r.timerGen++
	gen := r.timerGen

	t := r.clock.NewTimer(d)
	r.timer = t

	go func() {
		select {
		case <-t.Chan():
			select {
			case r.inbox <- timerFired{gen: gen}:
			case <-r.ctx.Done():
			}
		case <-r.ctx.Done():
			stopAndDrain(t)
		}
	}()
}

func (r *Room) armIdle() {
	r.idleGen++
	gen := r.idleGen

	t := r.clock.NewTimer(r.timing.Idle)
	go func() {
		select {
		case <-t.Chan():
			select {
			case r.inbox <- idleFired{gen: gen}:
			case <-r.ctx.Done():
			}
		case <-r.ctx.Done():
			stopAndDrain(t)
		}
	}()
}

func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	if r.timer != nil {
		stopAndDrain(r.timer)
	}
	r.cancel()
	if r.onClose != nil {
		r.onClose(r.code)
	}
}
