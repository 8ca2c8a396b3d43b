package match

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkoskela/kasa/game/engine"
)

// MaxPlayers is the largest supported roster.
const MaxPlayers = 5

// DefaultTurnTimeout is how long a seat may sit on its turn before the
// match resolves against it. Fixed per match, independent of roster size.
const DefaultTurnTimeout = 120 * time.Second

// ErrRosterFull is returned by AddPlayer once the roster is at capacity.
var ErrRosterFull = errors.New("match: roster is full")

// Seat is a stable snapshot of one roster slot, safe to hold outside the
// match lock.
type Seat struct {
	UID          string
	PublicUID    string
	ConnectionID string
	Name         string
}

// Match is one live game session. All state behind mu forms a single
// logical unit: every operation takes the lock for its whole
// read-modify-write sequence.
type Match struct {
	uid         string
	turnTimeout time.Duration
	timer       *TurnTimer
	createdAt   time.Time

	mu          sync.Mutex
	players     []*engine.Player
	deck        *engine.Deck
	pile        *engine.Pile
	turnIndex   int
	turnMoves   int
	initialized bool
}

// New creates an empty match with a fresh shuffled deck. A non-positive
// turnTimeout falls back to DefaultTurnTimeout.
func New(turnTimeout time.Duration) *Match {
	return NewWithUID(uuid.NewString(), turnTimeout)
}

// NewWithUID creates an empty match carrying the given session id. The
// lobby uses this to hand a filled queue's uid over to the match it
// starts.
func NewWithUID(uid string, turnTimeout time.Duration) *Match {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Match{
		uid:         uid,
		turnTimeout: turnTimeout,
		timer:       NewTurnTimer(),
		createdAt:   time.Now(),
		deck:        engine.NewDeck(),
		pile:        engine.NewPile(),
	}
}

// UID returns the session id.
func (m *Match) UID() string { return m.uid }

// CreatedAt returns the creation timestamp, used for result durations and
// stale-session cleanup.
func (m *Match) CreatedAt() time.Time { return m.createdAt }

// AddPlayer seats a player. Fails with ErrRosterFull at capacity.
func (m *Match) AddPlayer(p *engine.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.players) >= MaxPlayers {
		return ErrRosterFull
	}
	m.players = append(m.players, p)
	return nil
}

// Initialize deals every seat 3 hand, 3 floor and 3 blind cards in seating
// order, sets the cursor to seat 0 and arms the inactivity timer with
// onTimeout. Calling Initialize on an initialized match is a no-op.
func (m *Match) Initialize(onTimeout func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return
	}

	for _, p := range m.players {
		for i := 0; i < engine.HandRefill; i++ {
			if card, ok := m.deck.Draw(); ok {
				p.AddHandCard(card)
			}
		}
		for i := 0; i < engine.HandRefill; i++ {
			if card, ok := m.deck.Draw(); ok {
				p.AddFloorCard(card)
			}
		}
		for i := 0; i < engine.HandRefill; i++ {
			if card, ok := m.deck.Draw(); ok {
				p.AddBlindCard(card)
			}
		}
	}

	m.turnIndex = 0
	m.initialized = true
	m.timer.Arm(m.turnTimeout, onTimeout)
}

// Initialized reports whether cards have been dealt.
func (m *Match) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// PlayCard attempts to play the given hand card for the seat at the
// cursor. It returns whether the card was played and the effect that
// resolved, which differs from the card's own effect when a four-of-a-kind
// burn supersedes it.
func (m *Match) PlayCard(cardUID string) (bool, engine.Effect) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.currentLocked()
	if !ok {
		return false, engine.NoEffect
	}

	card, ok := player.HandCard(cardUID)
	if !ok {
		return false, engine.NoEffect
	}

	if !m.pile.CanPlay(card, m.turnMoves) {
		return false, engine.NoEffect
	}

	player.RemoveHandCard(cardUID)

	// Rank-stacking reopens the turn: further plays count from zero.
	if top, ok := m.pile.Top(); ok && top.Rank == card.Rank {
		m.turnMoves = 0
	}

	if m.pile.IsBurn(card) {
		m.pile.Clear()
		m.turnMoves = 0
		m.claimReservesLocked(player)
		return true, engine.Destroy
	}

	if card.Effect == engine.Destroy {
		m.pile.Clear()
		m.turnMoves = 0
		if replacement, ok := m.deck.Draw(); ok {
			player.AddHandCard(replacement)
		}
		m.claimReservesLocked(player)
		return true, engine.Destroy
	}

	m.pile.Add(card)
	m.turnMoves++
	m.claimReservesLocked(player)
	return true, card.Effect
}

// EndTurn refills the acting seat's hand to three from the deck, advances
// the cursor, lets the incoming seat claim its floor or blind pile when
// its hand and the deck are both exhausted, resets the move counter and
// re-arms the timer. Returns false when the acting seat cannot be
// resolved.
func (m *Match) EndTurn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.currentLocked()
	if !ok {
		return false
	}

	for player.HandCount() < engine.HandRefill {
		card, ok := m.deck.Draw()
		if !ok {
			break
		}
		player.AddHandCard(card)
	}

	m.advanceLocked()
	if next, ok := m.currentLocked(); ok {
		m.claimReservesLocked(next)
	}

	m.turnMoves = 0
	m.timer.Rearm()
	return true
}

// PickupTurn makes the acting seat take the whole pile into hand, then
// advances the turn as EndTurn does. Returns false when the acting seat
// cannot be resolved.
func (m *Match) PickupTurn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.currentLocked()
	if !ok {
		return false
	}

	for _, card := range m.pile.Clear() {
		player.AddHandCard(card)
	}

	m.advanceLocked()
	m.turnMoves = 0
	m.timer.Rearm()
	return true
}

// TurnMoves returns the number of new-rank cards played by the acting
// seat since its turn began.
func (m *Match) TurnMoves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnMoves
}

// IsTurn reports whether the given player holds the cursor.
func (m *Match) IsTurn(playerUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.currentLocked()
	return ok && current.UID == playerUID
}

// HasPlayer reports whether the player is seated in this match.
func (m *Match) HasPlayer(playerUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.findLocked(playerUID)
	return ok
}

// IsWinCondition reports whether the player has won: unconditionally on
// the opponent's disconnect, otherwise when all three zones are empty.
func (m *Match) IsWinCondition(playerUID string, hasDisconnected bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isWinLocked(playerUID, hasDisconnected)
}

// Seats returns a snapshot of the roster in seating order.
func (m *Match) Seats() []Seat {
	m.mu.Lock()
	defer m.mu.Unlock()

	seats := make([]Seat, 0, len(m.players))
	for _, p := range m.players {
		seats = append(seats, Seat{
			UID:          p.UID,
			PublicUID:    p.PublicUID,
			ConnectionID: p.ConnectionID,
			Name:         p.Name,
		})
	}
	return seats
}

// CurrentSeat returns the seat at the cursor.
func (m *Match) CurrentSeat() (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.currentLocked()
	if !ok {
		return Seat{}, false
	}
	return Seat{UID: p.UID, PublicUID: p.PublicUID, ConnectionID: p.ConnectionID, Name: p.Name}, true
}

// NextSeat returns the seat after the cursor in seating order. This is
// the beneficiary seat for timeout resolutions.
func (m *Match) NextSeat() (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.players) == 0 {
		return Seat{}, false
	}
	p := m.players[(m.turnIndex+1)%len(m.players)]
	return Seat{UID: p.UID, PublicUID: p.PublicUID, ConnectionID: p.ConnectionID, Name: p.Name}, true
}

// ConnectionFor returns the connection id bound to a seated player.
func (m *Match) ConnectionFor(playerUID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.findLocked(playerUID); ok {
		return p.ConnectionID
	}
	return ""
}

// Stop durably disarms the inactivity timer. Safe to call repeatedly and
// after the match has been removed from the registry.
func (m *Match) Stop() {
	m.timer.Stop()
}

// Clean stops the timer and empties every card zone. Called on teardown.
func (m *Match) Clean() {
	m.timer.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.players {
		p.ClearCards()
	}
	m.players = nil
	m.deck.Clear()
	m.pile.Clear()
}

func (m *Match) currentLocked() (*engine.Player, bool) {
	if m.turnIndex < 0 || m.turnIndex >= len(m.players) {
		return nil, false
	}
	return m.players[m.turnIndex], true
}

func (m *Match) findLocked(playerUID string) (*engine.Player, bool) {
	for _, p := range m.players {
		if p.UID == playerUID {
			return p, true
		}
	}
	return nil, false
}

func (m *Match) advanceLocked() {
	if len(m.players) == 0 {
		return
	}
	m.turnIndex = (m.turnIndex + 1) % len(m.players)
}

// claimReservesLocked moves the seat's floor (or, once the floor is gone,
// blind) pile into its hand when both the hand and the deck are
// exhausted. Zones unlock strictly in hand, floor, blind order.
func (m *Match) claimReservesLocked(p *engine.Player) {
	if !p.HandEmpty() || !m.deck.Empty() {
		return
	}
	if !p.FloorEmpty() {
		p.ClaimFloor()
	} else if !p.BlindEmpty() {
		p.ClaimBlind()
	}
}

func (m *Match) isWinLocked(playerUID string, hasDisconnected bool) bool {
	p, ok := m.findLocked(playerUID)
	if !ok {
		return false
	}
	if hasDisconnected {
		return true
	}
	return p.HandEmpty() && p.FloorEmpty() && p.BlindEmpty()
}
