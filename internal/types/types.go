package types

// ClientMessage is what a websocket client sends.
//
//	joinRoom:  { code }                       subscribe to a room topic (idempotent)
//	startGame: { code, playerId }             owner-only start trigger
//	answer:    { roomCode, playerId, chosenIndex }
type ClientMessage struct {
	Type        string `json:"type"`
	Code        string `json:"code,omitempty"`
	RoomCode    string `json:"roomCode,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	ChosenIndex *int   `json:"chosenIndex,omitempty"`
}

// Room returns the room code whichever field the client put it in. The wire
// protocol uses "roomCode" on answer and "code" everywhere else.
func (m ClientMessage) Room() string {
	if m.RoomCode != "" {
		return m.RoomCode
	}
	return m.Code
}

// ServerMessage is a single push on the event channel. Seq is monotonic per
// room so a reconnecting client can tell replayed state from new pushes.
type ServerMessage struct {
	Type  string `json:"type"` // "gameStart" | "questionData" | "phase" | "answerResult" | "quizEnd" | "error"
	Seq   int    `json:"seq,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// PhasePayload carries everything a client needs to render a phase and run a
// locally-interpolated countdown: remaining = 1 - (now-startTime)/duration,
// clamped to [0,1], with no extra round-trips between pushes.
type PhasePayload struct {
	Type             string `json:"type"` // phase name
	QuestionIndex    int    `json:"questionIndex"`
	ActivePlayerID   string `json:"activePlayerId,omitempty"`
	ActivePlayerName string `json:"activePlayerName,omitempty"`
	Duration         int64  `json:"duration"`  // milliseconds
	StartTime        int64  `json:"startTime"` // unix milliseconds
}

type AnswerResultPayload struct {
	CorrectIndex int  `json:"correctIndex"`
	ChosenIndex  *int `json:"chosenIndex"`
}

type QuizEndPayload struct {
	Score   int  `json:"score"`
	Success bool `json:"success"`
}
