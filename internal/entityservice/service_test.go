package entityservice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"shelfhub/pkg/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsPort(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "databaseURL: shelfhub.db\n"), "book")
	require.NoError(t, err)
	assert.Equal(t, "50052", cfg.Port)
	assert.Equal(t, "shelfhub.db", cfg.DatabaseURL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("USER_PORT", "6000")
	t.Setenv("DATABASE_URL", "postgres://db/shelf")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeConfig(t, "port: \"50053\"\ndatabaseURL: a.db\n"), "user")
	require.NoError(t, err)
	assert.Equal(t, Config{Port: "6000", LogLevel: "debug", DatabaseURL: "postgres://db/shelf"}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "port: \"1\"\n"), "library")
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "databaseURL: a.db\n"), "author")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestRegister(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer store.Close(db)

	srv := grpc.NewServer()
	for _, name := range []string{"library", "book", "user"} {
		require.NoError(t, Register(srv, name, db))
	}
	info := srv.GetServiceInfo()
	assert.Contains(t, info, "library.LibraryService")
	assert.Contains(t, info, "book.BookService")
	assert.Contains(t, info, "user.UserService")

	assert.ErrorIs(t, Register(srv, "author", db), ErrUnknownService)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "library", Config{Port: "0", DatabaseURL: ":memory:"})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}
