package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/cwrk-planet/space-service/internal/domain"

	"github.com/gorilla/websocket"
)

// Внешние способности, которые ядро потребляет, но не реализует.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, err error)
}

type SpaceProvider interface {
	GetSpace(ctx context.Context, id string) (domain.Space, error)
}

type Options struct {
	AllowedOrigins []string      // пусто — принимать любой Origin
	PingEvery      time.Duration // default 15s
	ReadLimit      int64         // default 1MB
}

type Server struct {
	upgrader websocket.Upgrader
	registry *Registry
	verifier TokenVerifier
	spaces   SpaceProvider

	pingEvery time.Duration
	readLimit int64

	// точка для детерминированного спауна в тестах
	spawn func(width, height int) domain.Position
}

func NewServer(registry *Registry, verifier TokenVerifier, spaces SpaceProvider, opts Options) *Server {
	if opts.PingEvery <= 0 {
		opts.PingEvery = 15 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}

	return &Server{
		registry: registry,
		verifier: verifier,
		spaces:   spaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		pingEvery: opts.PingEvery,
		readLimit: opts.ReadLimit,
		spawn: func(width, height int) domain.Position {
			return domain.Position{X: rand.Intn(width), Y: rand.Intn(height)}
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// WS endpoint: GET /ws. Аутентификации на апгрейде нет — токен приходит
// в payload первого сообщения join.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	sess := &session{conn: c, state: stateUnjoined}

	go s.writeLoop(c)
	s.readLoop(r.Context(), c, sess)

	s.disconnect(sess)
}

// readLoop — state machine соединения: Unjoined -> Joined -> Closed.
// Нечитаемые конверты и незнакомые типы логируются и пропускаются,
// состояние при этом не меняется.
func (s *Server) readLoop(ctx context.Context, c *wsConn, sess *session) {
	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ws malformed envelope", "err", err)
			continue
		}

		switch msg.Type {
		case TypeJoin:
			var p JoinPayload
			if err := decode(msg.Payload, &p); err != nil || p.SpaceID == "" || p.Token == "" {
				slog.Debug("ws malformed join payload", "err", err)
				continue
			}
			if !s.handleJoin(ctx, sess, p) {
				return
			}
		case TypeMovement:
			var p MovementPayload
			if err := decode(msg.Payload, &p); err != nil {
				slog.Debug("ws malformed movement payload", "err", err)
				continue
			}
			s.handleMovement(sess, p)
		default:
			slog.Debug("ws unknown message type", "type", msg.Type)
		}
	}
}

// handleJoin выполняет вход в пространство. Повторный join уже вошедшей
// сессии трактуется как неявный leave-then-join: старое членство снимается
// с рассылкой user-left, затем вход идёт по обычному пути. Ложь в ответе
// означает фатальную для соединения ошибку (авторизация либо неизвестное
// пространство) — вызывающий завершает read loop.
func (s *Server) handleJoin(ctx context.Context, sess *session, p JoinPayload) bool {
	userID, err := s.verifier.VerifyToken(p.Token)
	if err != nil {
		slog.Warn("ws join unauthorized", "space", p.SpaceID, "err", err)
		return false
	}

	// Метаданные пространства и токен запрашиваются вне какого-либо
	// мьютекса комнаты: блокировка берётся только вокруг мутации членства.
	space, err := s.spaces.GetSpace(ctx, p.SpaceID)
	if err != nil {
		if errors.Is(err, domain.ErrSpaceNotFound) || errors.Is(err, domain.ErrInvalidSpaceSize) {
			slog.Warn("ws join to unknown space", "space", p.SpaceID, "user", userID)
		} else {
			slog.Error("ws space lookup failed", "space", p.SpaceID, "user", userID, "err", err)
		}
		return false
	}

	if sess.state == stateJoined {
		s.leaveRoom(sess)
	}

	sess.userID = userID
	for {
		room := s.registry.getOrCreate(space)
		// границы спауна — из метаданных комнаты, а не свежего запроса:
		// комната могла быть создана раньше с другими размерами
		sess.pos = s.spawn(room.space.Width, room.space.Height)
		if room.join(sess) {
			break
		}
		// комната опустела и была удалена между getOrCreate и join
	}
	sess.state = stateJoined

	slog.Debug("ws user joined", "space", space.ID, "user", userID, "x", sess.pos.X, "y", sess.pos.Y)
	return true
}

func (s *Server) handleMovement(sess *session, p MovementPayload) {
	if sess.state != stateJoined {
		slog.Debug("ws movement before join")
		return
	}
	sess.room.move(sess, domain.Position{X: p.X, Y: p.Y})
}

// disconnect — единственный путь уборки; идемпотентен. Повторный вызов
// для уже закрытой сессии ничего не делает и не дублирует user-left.
func (s *Server) disconnect(sess *session) {
	if sess.state == stateClosed {
		return
	}
	if sess.state == stateJoined {
		s.leaveRoom(sess)
	}
	sess.state = stateClosed
	_ = sess.conn.Close()
}

func (s *Server) leaveRoom(sess *session) {
	room := sess.room
	if room == nil {
		return
	}
	if empty := room.leave(sess); empty {
		s.registry.drop(room)
	}
	sess.room = nil
	sess.state = stateUnjoined
	slog.Debug("ws user left", "space", room.space.ID, "user", sess.userID)
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
