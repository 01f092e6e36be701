package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() {
		// Clean up test data
		database.conn.Exec("DELETE FROM game_players")
		database.conn.Exec("DELETE FROM games")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	assert.NoError(t, database.Ping(context.Background()))
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// Re-running must be harmless.
	require.NoError(t, database.Migrate())

	for _, table := range []string{"games", "game_players"} {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s does not exist", table)
	}
}

func TestRecordGame(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	rec := GameRecord{
		ID:           uuid.NewString(),
		RoomCode:     "1",
		TotalRounds:  2,
		RoundsPlayed: 2,
		Completed:    true,
		StartedAt:    &started,
		EndedAt:      time.Now().UTC().Truncate(time.Millisecond),
		Players: []PlayerResult{
			{Name: "A", RoundScores: []float64{5, 3}, Total: 8, Rank: 1},
			{Name: "B", RoundScores: []float64{1, 2.5}, Total: 3.5, Rank: 2},
		},
	}
	require.NoError(t, database.RecordGame(ctx, rec))

	got, err := database.GetGame(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.RoomCode)
	assert.Equal(t, 2, got.RoundsPlayed)
	assert.True(t, got.Completed)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
	require.Len(t, got.Players, 2)
	assert.Equal(t, "A", got.Players[0].Name)
	assert.Equal(t, []float64{5, 3}, got.Players[0].RoundScores)
	assert.Equal(t, 2, got.Players[1].Rank)
}

func TestRecordGame_Replaces(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	rec := GameRecord{
		ID:          uuid.NewString(),
		RoomCode:    "party",
		TotalRounds: 3,
		EndedAt:     time.Now(),
		Players:     []PlayerResult{{Name: "A", Total: 0, Rank: 1}},
	}
	require.NoError(t, database.RecordGame(ctx, rec))

	rec.RoundsPlayed = 1
	rec.Players = []PlayerResult{{Name: "B", RoundScores: []float64{4}, Total: 4, Rank: 1}}
	require.NoError(t, database.RecordGame(ctx, rec))

	got, err := database.GetGame(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RoundsPlayed)
	assert.Nil(t, got.StartedAt)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "B", got.Players[0].Name)
}

func TestGetGame_NotFound(t *testing.T) {
	database := getTestDB(t)
	_, err := database.GetGame(context.Background(), uuid.NewString())
	assert.Error(t, err)
}
