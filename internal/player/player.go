package player

import (
	"sync"

	"github.com/google/uuid"
)

// Player is created once by the identity endpoint and never mutated.
// Rooms and sessions reference players by ID only.
type Player struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Player) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type Store struct {
	mu      sync.RWMutex
	players map[string]Player
}

func NewStore() *Store {
	return &Store{players: make(map[string]Player)}
}

func (s *Store) Create(firstName, lastName string) Player {
	p := Player{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
	}
	s.mu.Lock()
	s.players[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *Store) Get(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok
}
