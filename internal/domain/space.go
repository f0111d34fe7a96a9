package domain

import "time"

// Space — 2D-сетка, в которой живут пользователи.
// Width/Height задаются при создании пространства в CRUD-сервисе;
// ядро читает их один раз при создании комнаты.
type Space struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	Thumbnail *string   `db:"thumbnail"`
	CreatedAt time.Time `db:"created_at"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}
