package ws

import (
	"log/slog"
	"sync"

	"github.com/cwrk-planet/space-service/internal/domain"
)

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

// session — серверное состояние одного соединения. userID, pos и room
// определены только после успешного join. Переходы состояний выполняет
// исключительно goroutine чтения этого соединения; видимость позиции для
// остальных участников обеспечивает мьютекс комнаты.
type session struct {
	conn   Conn
	state  sessionState
	userID string
	pos    domain.Position
	room   *Room
}

// Room владеет членством: userID -> session. Метаданные пространства
// фиксируются при создании комнаты и не перечитываются до её смерти.
// Все чтения-под-запись членства и позиций сериализует mu.
type Room struct {
	space domain.Space

	mu      sync.Mutex
	closed  bool // комната опустела и снята с учёта, вступать нельзя
	members map[string]*session
}

func newRoom(space domain.Space) *Room {
	return &Room{
		space:   space,
		members: make(map[string]*session),
	}
}

// join добавляет сессию в комнату, отвечает ей space-joined и рассылает
// user-join остальным. Список users отражает состояние строго до этого
// join. Возвращает false, если комната уже опустела и удалена — тогда
// вызывающий обязан взять свежую комнату из реестра.
func (r *Room) join(s *session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	others := make([]UserState, 0, len(r.members))
	for id, m := range r.members {
		if id == s.userID {
			continue
		}
		others = append(others, UserState{UserID: id, X: m.pos.X, Y: m.pos.Y})
	}

	// Тот же userID с другого соединения: старая сессия вытесняется.
	// Её read loop увидит закрытие и отработает disconnect, но из members
	// уже ничего не снимет (см. защиту по указателю в leave).
	if old, ok := r.members[s.userID]; ok && old != s {
		_ = old.conn.Close()
	}
	r.members[s.userID] = s
	s.room = r

	if err := s.conn.Send(Message{
		Type: TypeSpaceJoined,
		Payload: SpaceJoinedPayload{
			Spawn: Point{X: s.pos.X, Y: s.pos.Y},
			Users: others,
		},
	}); err != nil {
		slog.Debug("ws send space-joined failed", "space", r.space.ID, "user", s.userID, "err", err)
	}

	r.broadcastLocked(Message{
		Type:    TypeUserJoin,
		Payload: UserState{UserID: s.userID, X: s.pos.X, Y: s.pos.Y},
	}, s.userID)

	return true
}

// move применяет ход либо отвечает movement-rejected с неизменной позицией.
// Успешный ход не подтверждается отправителю — только рассылается остальным.
func (r *Room) move(s *session, next domain.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// вытесненная повторным join сессия не владеет позицией этого userID
	// и двигать её не может (та же защита по указателю, что и в leave)
	if cur, ok := r.members[s.userID]; !ok || cur != s {
		return
	}

	if !domain.LegalStep(s.pos, next, r.space.Width, r.space.Height) {
		if err := s.conn.Send(Message{
			Type:    TypeMovementRejected,
			Payload: Point{X: s.pos.X, Y: s.pos.Y},
		}); err != nil {
			slog.Debug("ws send movement-rejected failed", "space", r.space.ID, "user", s.userID, "err", err)
		}
		return
	}

	s.pos = next
	r.broadcastLocked(Message{
		Type:    TypeMovement,
		Payload: UserState{UserID: s.userID, X: next.X, Y: next.Y},
	}, s.userID)
}

// leave снимает сессию с учёта и рассылает user-left оставшимся.
// Возвращает true, если комната опустела и её пора удалить из реестра.
// Сессия, вытесненная повторным join того же userID, здесь ничего не
// меняет: запись в members уже указывает на другую сессию.
func (r *Room) leave(s *session) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.members[s.userID]
	if !ok || cur != s {
		return false
	}
	delete(r.members, s.userID)

	r.broadcastLocked(Message{
		Type:    TypeUserLeft,
		Payload: UserLeftPayload{UserID: s.userID},
	}, s.userID)

	if len(r.members) == 0 {
		r.closed = true
		return true
	}
	return false
}

func (r *Room) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// broadcastLocked шлёт msg всем, кроме excludeUserID. Доставка best-effort:
// отказ одного соединения не мешает остальным и не откатывает состояние.
func (r *Room) broadcastLocked(msg Message, excludeUserID string) {
	for id, m := range r.members {
		if id == excludeUserID {
			continue
		}
		if err := m.conn.Send(msg); err != nil {
			slog.Debug("ws broadcast failed", "space", r.space.ID, "user", id, "type", msg.Type, "err", err)
		}
	}
}
