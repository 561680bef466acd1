package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
	"shelfhub/pkg/rpc"
	"shelfhub/pkg/store"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

func TestDirectBackendSharesHandlers(t *testing.T) {
	a, err := New(Config{DB: memoryDB(t), RESTBackend: "direct"})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.REST.Books.Create(ctx, domain.Book{ID: 1, Title: "t", Description: "d"})
	require.NoError(t, err)
	got, err := a.Direct.Books.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestUnknownBackend(t *testing.T) {
	_, err := New(Config{DB: memoryDB(t), RESTBackend: "soap"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRequiresDatabase(t *testing.T) {
	_, err := New(Config{RESTBackend: "direct"})
	assert.Error(t, err)
}

func TestRPCBackendReachesSameStore(t *testing.T) {
	db := memoryDB(t)

	// The entity services run against the same database as the gateway.
	server, err := New(Config{DB: db, RESTBackend: "direct"})
	require.NoError(t, err)
	defer server.Close()

	listeners := map[string]*bufconn.Listener{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, name := range []string{"library", "book", "user"} {
		lis := bufconn.Listen(1 << 20)
		listeners[name] = lis
		srv := rpc.NewServer()
		switch name {
		case "library":
			server.RegisterRPC(srv, nil, nil)
		case "book":
			server.RegisterRPC(nil, srv, nil)
		case "user":
			server.RegisterRPC(nil, nil, srv)
		}
		go func() { _ = rpc.ServeListener(ctx, srv, lis) }()
	}

	dialer := grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
		return listeners[addr].DialContext(ctx)
	})
	gw, err := New(Config{
		DB:                 db,
		RESTBackend:        "rpc",
		LibraryServiceAddr: "passthrough:///library",
		BookServiceAddr:    "passthrough:///book",
		UserServiceAddr:    "passthrough:///user",
		RPCTimeout:         time.Second,
		DialOptions:        []grpc.DialOption{dialer},
	})
	require.NoError(t, err)
	defer gw.Close()

	_, ok := gw.REST.Libraries.(*rpc.LibraryClient)
	require.True(t, ok, "rest backend should use rpc clients")

	_, err = gw.REST.Libraries.Create(ctx, domain.Library{ID: 1, Title: "A", Description: "d"})
	require.NoError(t, err)
	lib, err := gw.Direct.Libraries.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Library{ID: 1, Title: "A", Description: "d"}, lib)

	_, err = gw.Direct.Users.Create(ctx, domain.User{ID: 2, Username: "bob", Password: "x", Email: "b@x.com"})
	require.NoError(t, err)
	user, err := gw.REST.Users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = gw.REST.Books.Get(ctx, 404)
	assert.True(t, entity.IsNotFound(err))
}
