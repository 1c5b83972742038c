package game

import (
	"errors"

	"github.com/qrgame/qr-game-backend/internal/quiz"
)

var ErrNotOwner = errors.New("only the room owner can start")
var ErrAlreadyStarted = errors.New("session already started")
var ErrNoMembers = errors.New("cannot start with no members")
var ErrWrongPhase = errors.New("action not valid in current phase")
var ErrNotYourTurn = errors.New("not the active player")
var ErrAlreadyAnswered = errors.New("round already answered")
var ErrInvalidAnswer = errors.New("answer index out of range")
var ErrSessionOver = errors.New("session already ended")
var ErrUnsupportedCommand = errors.New("unsupported command")

// SuccessThreshold is the minimum score for a winning outcome.
const SuccessThreshold = 4

type Phase string

const (
	PhaseWaiting Phase = "WAITING"
	PhaseThink   Phase = "THINK"
	PhaseAnswer  Phase = "ANSWER"
	PhaseResult  Phase = "RESULT"
	PhaseEnd     Phase = "END"
)

// Member is one entry of the turn-rotation snapshot taken at start.
type Member struct {
	ID   string
	Name string
}

// State is the whole per-room session. Apply never mutates its input; the
// room actor is the single writer that swaps old state for new.
type State struct {
	Phase     Phase
	Index     int
	OwnerID   string
	Members   []Member
	Questions []quiz.Question
	Score     int
	Chosen    *int
}

func NewState(ownerID string, questions []quiz.Question) State {
	return State{
		Phase:     PhaseWaiting,
		OwnerID:   ownerID,
		Questions: questions,
	}
}

// ActivePlayer is derived, never stored: members[index mod n] over the
// snapshot taken at start, so assignment is deterministic and nobody is
// skipped.
func (s State) ActivePlayer() (Member, bool) {
	if len(s.Members) == 0 || s.Phase == PhaseWaiting || s.Phase == PhaseEnd {
		return Member{}, false
	}
	return s.Members[s.Index%len(s.Members)], true
}

func (s State) CurrentQuestion() (quiz.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return quiz.Question{}, false
	}
	return s.Questions[s.Index], true
}

type CommandType string

const (
	CmdStartGame      CommandType = "StartGame"
	CmdSubmitAnswer   CommandType = "SubmitAnswer"
	CmdTimeoutAdvance CommandType = "TimeoutAdvance"
)

type Command struct {
	Type        CommandType
	PlayerID    string
	ChosenIndex int
	Members     []Member // StartGame only: roster snapshot at start
}

type EventType string

const (
	EvtGameStarted    EventType = "GameStarted"
	EvtRoundStarted   EventType = "RoundStarted"
	EvtPhaseChanged   EventType = "PhaseChanged"
	EvtAnswerResolved EventType = "AnswerResolved"
	EvtQuizEnded      EventType = "QuizEnded"
)

type Event struct {
	Type         EventType
	Phase        Phase
	Index        int
	Active       Member
	CorrectIndex int
	Chosen       *int
	Score        int
	Success      bool
}

// Apply validates cmd against s and returns the events plus the next state.
// Pure: no clock, no I/O. Deadlines live in the room actor, which feeds
// CmdTimeoutAdvance when one expires.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartGame:
		return applyStart(s, cmd)
	case CmdSubmitAnswer:
		return applySubmit(s, cmd)
	case CmdTimeoutAdvance:
		return applyTimeout(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyStart(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, s, ErrAlreadyStarted
	}
	if cmd.PlayerID != s.OwnerID {
		return nil, s, ErrNotOwner
	}
	if len(cmd.Members) == 0 {
		return nil, s, ErrNoMembers
	}

	next := s
	next.Members = make([]Member, len(cmd.Members))
	copy(next.Members, cmd.Members)
	next.Index = 0
	next.Score = 0
	next.Chosen = nil
	next.Phase = PhaseThink

	active := next.Members[0]
	events := []Event{
		{Type: EvtGameStarted},
		{Type: EvtRoundStarted, Index: 0, Active: active},
		{Type: EvtPhaseChanged, Phase: PhaseThink, Index: 0, Active: active},
	}
	return events, next, nil
}

func applySubmit(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseAnswer {
		return nil, s, ErrWrongPhase
	}
	active, _ := s.ActivePlayer()
	if cmd.PlayerID != active.ID {
		return nil, s, ErrNotYourTurn
	}
	if s.Chosen != nil {
		return nil, s, ErrAlreadyAnswered
	}
	if cmd.ChosenIndex < 0 || cmd.ChosenIndex > 3 {
		return nil, s, ErrInvalidAnswer
	}

	q, _ := s.CurrentQuestion()

	next := s
	chosen := cmd.ChosenIndex
	next.Chosen = &chosen
	if chosen == q.CorrectIndex {
		next.Score++
	}
	next.Phase = PhaseResult

	events := []Event{
		{Type: EvtAnswerResolved, Index: s.Index, CorrectIndex: q.CorrectIndex, Chosen: &chosen},
		{Type: EvtPhaseChanged, Phase: PhaseResult, Index: s.Index, Active: active},
	}
	return events, next, nil
}

func applyTimeout(s State) ([]Event, State, error) {
	switch s.Phase {
	case PhaseThink:
		next := s
		next.Phase = PhaseAnswer
		active, _ := s.ActivePlayer()
		events := []Event{
			{Type: EvtPhaseChanged, Phase: PhaseAnswer, Index: s.Index, Active: active},
		}
		return events, next, nil

	case PhaseAnswer:
		// No answer before the deadline: round resolves as incorrect with a
		// nil chosen index, score unchanged.
		q, _ := s.CurrentQuestion()
		active, _ := s.ActivePlayer()
		next := s
		next.Phase = PhaseResult
		events := []Event{
			{Type: EvtAnswerResolved, Index: s.Index, CorrectIndex: q.CorrectIndex, Chosen: nil},
			{Type: EvtPhaseChanged, Phase: PhaseResult, Index: s.Index, Active: active},
		}
		return events, next, nil

	case PhaseResult:
		if s.Index == len(s.Questions)-1 {
			next := s
			next.Phase = PhaseEnd
			events := []Event{
				{Type: EvtQuizEnded, Score: s.Score, Success: s.Score >= SuccessThreshold},
			}
			return events, next, nil
		}

		next := s
		next.Index = s.Index + 1
		next.Chosen = nil
		next.Phase = PhaseThink
		active := next.Members[next.Index%len(next.Members)]
		events := []Event{
			{Type: EvtRoundStarted, Index: next.Index, Active: active},
			{Type: EvtPhaseChanged, Phase: PhaseThink, Index: next.Index, Active: active},
		}
		return events, next, nil

	case PhaseEnd:
		return nil, s, ErrSessionOver

	default:
		return nil, s, ErrWrongPhase
	}
}
