package rooms

import (
	"poseparty/internal/game"
	"time"
)

type Room struct {
	ID        string
	Game      *game.Game
	CreatedAt time.Time
}
