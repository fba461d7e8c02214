package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

// Sender is the outbound half of a player's connection. Implementations must
// be comparable (pointer types) since the registry keys sessions by them.
type Sender interface {
	Send(line string) error
}

// Recipient pairs a registered player with its connection.
type Recipient struct {
	Player entity.Player
	Conn   Sender
}

// Registry tracks connected players. It has its own lock, separate from the board.
type Registry struct {
	mu sync.RWMutex

	maxPlayers int
	palette    []string

	nextID  int
	clients map[Sender]entity.Player
	hidden  map[Sender]struct{}
	names   map[int]string
	closed  bool
}

func New(maxPlayers int, palette []string) *Registry {
	if len(palette) == 0 {
		palette = entity.DefaultPalette
	}

	return &Registry{
		maxPlayers: maxPlayers,
		palette:    append([]string(nil), palette...),
		nextID:     1,
		clients:    make(map[Sender]entity.Player),
		hidden:     make(map[Sender]struct{}),
		names:      make(map[int]string),
	}
}

// Register - admits a connection as a new player that receives broadcasts right away.
func (that *Registry) Register(conn Sender, requestedName string) (entity.Player, error) {
	player, err := that.Reserve(conn, requestedName)
	if err != nil {
		return entity.Player{}, err
	}

	that.Activate(conn)

	return player, nil
}

// Reserve - admits a connection as a new player but leaves it out of
// Recipients until Activate, so nothing reaches it before its welcome.
// It still counts towards capacity and appears in List.
func (that *Registry) Reserve(conn Sender, requestedName string) (entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return entity.Player{}, apperror.ErrRoundFinished
	}

	if len(that.clients) >= that.maxPlayers {
		return entity.Player{}, fmt.Errorf("%w: %d players", apperror.ErrServerFull, len(that.clients))
	}

	if existing, ok := that.clients[conn]; ok {
		return existing, nil
	}

	id := that.nextID
	that.nextID++

	name := strings.TrimSpace(requestedName)
	if name == "" {
		name = entity.DefaultName(id)
	}

	player := entity.Player{
		ID:    id,
		Name:  name,
		Color: that.palette[(id-1)%len(that.palette)],
	}

	that.clients[conn] = player
	that.hidden[conn] = struct{}{}
	that.names[id] = name

	return player, nil
}

// Activate - makes a reserved connection a broadcast recipient.
func (that *Registry) Activate(conn Sender) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.hidden, conn)
}

// Unregister - removes the connection's player, if any.
func (that *Registry) Unregister(conn Sender) (entity.Player, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.clients[conn]
	if !ok {
		return entity.Player{}, false
	}

	delete(that.clients, conn)
	delete(that.hidden, conn)

	return player, true
}

// Lookup - player registered for the connection.
func (that *Registry) Lookup(conn Sender) (entity.Player, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	player, ok := that.clients[conn]

	return player, ok
}

// List - current players ordered by id.
func (that *Registry) List() []entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	players := make([]entity.Player, 0, len(that.clients))
	for _, player := range that.clients {
		players = append(players, player)
	}

	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	return players
}

// Recipients - snapshot of every activated connection.
func (that *Registry) Recipients() []Recipient {
	that.mu.RLock()
	defer that.mu.RUnlock()

	recipients := make([]Recipient, 0, len(that.clients))
	for conn, player := range that.clients {
		if _, ok := that.hidden[conn]; ok {
			continue
		}
		recipients = append(recipients, Recipient{Player: player, Conn: conn})
	}

	return recipients
}

func (that *Registry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// Name - display name for any id seen this round, including departed players.
func (that *Registry) Name(id int) string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if name, ok := that.names[id]; ok {
		return name
	}

	return entity.DefaultName(id)
}

// Close - refuses any further registration.
func (that *Registry) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
}

func (that *Registry) IsClosed() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.closed
}
