package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"shelfhub/pkg/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, ensureTables(db))
	for _, table := range []string{"librarys", "books", "users"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestLibraryTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	libs := NewLibraryTable(openTestDB(t))

	_, ok, err := libs.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Library{ID: 1, Title: "A", Description: "d"}
	require.NoError(t, libs.Create(ctx, want))

	got, ok, err := libs.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	matched, err := libs.Update(ctx, domain.Library{ID: 1, Title: "B", Description: "e"})
	require.NoError(t, err)
	assert.True(t, matched)

	got, _, err = libs.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Library{ID: 1, Title: "B", Description: "e"}, got)

	require.NoError(t, libs.Delete(ctx, 1))
	_, ok, err = libs.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateMissingRowDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	books := NewBookTable(openTestDB(t))

	matched, err := books.Update(ctx, domain.Book{ID: 42, Title: "x", Description: "y"})
	require.NoError(t, err)
	assert.False(t, matched)

	all, err := books.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateWithUnchangedValuesStillMatches(t *testing.T) {
	ctx := context.Background()
	users := NewUserTable(openTestDB(t))
	u := domain.User{ID: 3, Username: "bob", Password: "x", Email: "b@x.com"}
	require.NoError(t, users.Create(ctx, u))

	matched, err := users.Update(ctx, u)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestDeleteMissingRowSucceeds(t *testing.T) {
	books := NewBookTable(openTestDB(t))
	require.NoError(t, books.Delete(context.Background(), 99))
}

func TestCreateDuplicateKey(t *testing.T) {
	ctx := context.Background()
	users := NewUserTable(openTestDB(t))
	u := domain.User{ID: 2, Username: "bob", Password: "x", Email: "b@x.com"}
	require.NoError(t, users.Create(ctx, u))

	err := users.Create(ctx, domain.User{ID: 2, Username: "eve"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)

	got, _, err := users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, u, got, "duplicate create must not overwrite")
}

func TestConcurrentCreateSameID(t *testing.T) {
	ctx := context.Background()
	libs := NewLibraryTable(openTestDB(t))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- libs.Create(ctx, domain.Library{ID: 7, Title: "t", Description: "d"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateKey):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestListReflectsCreatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	libs := NewLibraryTable(openTestDB(t))

	for id := int64(1); id <= 5; id++ {
		require.NoError(t, libs.Create(ctx, domain.Library{ID: id, Title: "t", Description: "d"}))
	}
	_, err := libs.Update(ctx, domain.Library{ID: 3, Title: "last", Description: "write"})
	require.NoError(t, err)
	require.NoError(t, libs.Delete(ctx, 1))
	require.NoError(t, libs.Delete(ctx, 5))

	all, err := libs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.Library{ID: 3, Title: "last", Description: "write"}, all[1])
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "shelf.db?_pragma=busy_timeout(5000)", sqliteDSN("shelf.db"))
	assert.Equal(t, "file:shelf.db?mode=rwc&_pragma=busy_timeout(5000)", sqliteDSN("file:shelf.db?mode=rwc"))
	assert.True(t, isPostgresDSN("postgres://u@localhost/db"))
	assert.False(t, isPostgresDSN("shelf.db"))
}
