package ws

// Типы событий протокола синхронизации присутствия.
const (
	// client -> server
	TypeJoin     = "join"     // войти в пространство
	TypeMovement = "movement" // предложить новую позицию

	// server -> client
	TypeSpaceJoined      = "space-joined"      // ответ присоединившемуся: spawn + кто уже в комнате
	TypeUserJoin         = "user-join"         // к комнате присоединился новый участник
	TypeMovementRejected = "movement-rejected" // ход отклонён, в payload текущая позиция
	TypeUserLeft         = "user-left"         // участник покинул комнату
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinPayload struct {
	SpaceID string `json:"spaceId"`
	Token   string `json:"token"`
}

type MovementPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UserState — позиция одного участника; payload для user-join и movement.
type UserState struct {
	UserID string `json:"userId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type SpaceJoinedPayload struct {
	Spawn Point       `json:"spawn"`
	Users []UserState `json:"users"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}
