package analytics

import (
	"context"
	"time"

	"poseparty/internal/db"
	"poseparty/internal/events"
	"poseparty/internal/logging"
)

// GameRecorder persists finished games. *db.DB implements it.
type GameRecorder interface {
	RecordGame(ctx context.Context, rec db.GameRecord) error
}

// Archiver writes every ended game it receives to the archive.
type Archiver struct {
	Store   GameRecorder
	Timeout time.Duration
	// OnError is called after a failed write.
	OnError func()
}

// Run consumes lifecycle events until the channel closes or ctx ends.
func (a *Archiver) Run(ctx context.Context, in <-chan events.Lifecycle) {
	l := logging.For("archive")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			rec, ok := GameRecordFrom(ev)
			if !ok {
				continue
			}
			if err := a.record(ctx, rec); err != nil {
				l.Error().Err(err).Str("game", rec.ID).Str("room", rec.RoomCode).Msg("archiving game")
				if a.OnError != nil {
					a.OnError()
				}
				continue
			}
			l.Info().Str("game", rec.ID).Str("room", rec.RoomCode).Int("players", len(rec.Players)).Msg("archived game")
		}
	}
}

func (a *Archiver) record(ctx context.Context, rec db.GameRecord) error {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	return a.Store.RecordGame(ctx, rec)
}

// GameRecordFrom builds the archive row for a game_ended event. Games that
// ended because everyone left have nobody to record and are skipped.
func GameRecordFrom(ev events.Lifecycle) (db.GameRecord, bool) {
	if ev.Kind != events.KindGameEnded || len(ev.Scores) == 0 {
		return db.GameRecord{}, false
	}

	rec := db.GameRecord{
		ID:           ev.GameID,
		RoomCode:     ev.Room,
		TotalRounds:  ev.TotalRounds,
		RoundsPlayed: ev.Round,
		Completed:    ev.Completed,
		EndedAt:      ev.At,
	}
	if !ev.StartedAt.IsZero() {
		started := ev.StartedAt
		rec.StartedAt = &started
	}
	for _, s := range Standings(ev.Scores) {
		rec.Players = append(rec.Players, db.PlayerResult{
			Name:        s.Name,
			RoundScores: s.RoundScores,
			Total:       s.Total,
			Rank:        s.Rank,
		})
	}
	return rec, true
}
