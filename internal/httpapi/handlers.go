package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/hub"
	"github.com/qrgame/qr-game-backend/internal/player"
	"github.com/qrgame/qr-game-backend/internal/room"
)

type createPlayerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type createRoomRequest struct {
	PlayerID string `json:"playerId"`
}

type joinRoomRequest struct {
	PlayerID string `json:"playerId"`
	Code     string `json:"code"`
}

// CreatePlayer issues an opaque player id for a display name pair.
func CreatePlayer(store *player.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPlayerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body")
			return
		}
		if req.FirstName == "" {
			writeErr(w, http.StatusBadRequest, "firstName is required")
			return
		}

		p := store.Create(req.FirstName, req.LastName)
		writeJSON(w, http.StatusCreated, struct {
			ID string `json:"id"`
		}{ID: p.ID})
	}
}

// CreateRoom creates a room owned by the requesting player and returns its code.
func CreateRoom(h *hub.Hub, store *player.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body")
			return
		}

		owner, ok := store.Get(req.PlayerID)
		if !ok {
			writeErr(w, http.StatusNotFound, "player not found")
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{Owner: owner, Reply: reply}
		rm := <-reply
		if rm == nil {
			writeErr(w, http.StatusInternalServerError, "failed to create room")
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: rm.Code()})
	}
}

// JoinRoom appends the player to the roster. Joining twice is a no-op.
func JoinRoom(h *hub.Hub, store *player.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid body")
			return
		}

		p, ok := store.Get(req.PlayerID)
		if !ok {
			writeErr(w, http.StatusNotFound, "player not found")
			return
		}

		rm := getRoom(h, req.Code)
		if rm == nil {
			writeErr(w, http.StatusNotFound, "room not found")
			return
		}

		reply := make(chan error, 1)
		select {
		case rm.Inbox() <- room.Join{Player: p, Reply: reply}:
		case <-rm.Done():
			writeErr(w, http.StatusNotFound, "room not found")
			return
		}

		var err error
		select {
		case err = <-reply:
		case <-rm.Done():
			// the room may have replied just before closing
			select {
			case err = <-reply:
			default:
				writeErr(w, http.StatusNotFound, "room not found")
				return
			}
		}
		if errors.Is(err, room.ErrRoomClosed) {
			writeErr(w, http.StatusConflict, "room is closed")
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// ListPlayers is the poll-safe roster read: ordered players plus ownerId,
// straight from the room actor the push layer broadcasts from.
func ListPlayers(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		rm := getRoom(h, code)
		if rm == nil {
			writeErr(w, http.StatusNotFound, "room not found")
			return
		}

		reply := make(chan room.Roster, 1)
		select {
		case rm.Inbox() <- room.Members{Reply: reply}:
		case <-rm.Done():
			writeErr(w, http.StatusNotFound, "room not found")
			return
		}

		var roster room.Roster
		select {
		case roster = <-reply:
		case <-rm.Done():
			select {
			case roster = <-reply:
			default:
				writeErr(w, http.StatusNotFound, "room not found")
				return
			}
		}

		writeJSON(w, http.StatusOK, struct {
			Players []player.Player `json:"players"`
			OwnerID string          `json:"ownerId"`
		}{Players: roster.Players, OwnerID: roster.OwnerID})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func getRoom(h *hub.Hub, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	return <-reply
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
