package ws

import (
	"sync"

	"github.com/cwrk-planet/space-service/internal/domain"
)

// Registry — таблица живых комнат процесса: spaceID -> Room. Комната
// создаётся при первом join и удаляется, как только пустеет; осиротевших
// комнат реестр не хранит. Сам реестр защищает только доступ к таблице,
// членство комнат сериализуют их собственные мьютексы, поэтому операции
// над разными комнатами друг друга не блокируют.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// getOrCreate возвращает комнату пространства, создавая её при
// необходимости. Существующая комната сохраняет метаданные, полученные
// при её создании; space от более поздних join игнорируется.
func (g *Registry) getOrCreate(space domain.Space) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[space.ID]
	if !ok {
		r = newRoom(space)
		g.rooms[space.ID] = r
	}
	return r
}

// drop удаляет опустевшую комнату. Защита по указателю: если параллельный
// join уже успел создать свежую комнату под тем же spaceID, она остаётся.
func (g *Registry) drop(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.rooms[room.space.ID]; ok && cur == room {
		delete(g.rooms, room.space.ID)
	}
}

func (g *Registry) room(spaceID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[spaceID]
	return r, ok
}

// Len возвращает число живых комнат.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
