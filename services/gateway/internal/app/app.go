package app

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"gorm.io/gorm"
	"shelfhub/pkg/entity"
	"shelfhub/pkg/rpc"
	"shelfhub/pkg/store"
)

// Config holds runtime configuration for the gateway core.
type Config struct {
	DatabaseURL string
	// DB is used instead of opening DatabaseURL when set. The caller keeps
	// ownership.
	DB *gorm.DB

	// RESTBackend selects how REST reaches the entities: "rpc" or "direct".
	RESTBackend        string
	LibraryServiceAddr string
	BookServiceAddr    string
	UserServiceAddr    string
	RPCTimeout         time.Duration
	// DialOptions are appended to every RPC client connection.
	DialOptions []grpc.DialOption
}

// Services is one implementation of each entity contract.
type Services struct {
	Libraries entity.LibraryService
	Books     entity.BookService
	Users     entity.UserService
}

// App owns the store handle, the in-process entity handlers and the RPC
// clients used by REST.
type App struct {
	db     *gorm.DB
	ownsDB bool
	conns  []*grpc.ClientConn

	// Direct is backed by the local handlers. GraphQL and the in-process
	// RPC servers use it.
	Direct Services
	// REST is either Direct or the RPC clients, never a mix.
	REST Services
}

// New opens the store and builds the entity services.
func New(cfg Config) (*App, error) {
	a := &App{db: cfg.DB}
	if a.db == nil {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL required")
		}
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.db = db
		a.ownsDB = true
	}

	a.Direct = Services{
		Libraries: entity.NewLibraryHandler(store.NewLibraryTable(a.db)),
		Books:     entity.NewBookHandler(store.NewBookTable(a.db)),
		Users:     entity.NewUserHandler(store.NewUserTable(a.db)),
	}

	switch cfg.RESTBackend {
	case "direct":
		a.REST = a.Direct
	case "rpc", "":
		if err := a.dialServices(cfg); err != nil {
			_ = a.Close()
			return nil, err
		}
	default:
		_ = a.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.RESTBackend)
	}
	return a, nil
}

func (a *App) dialServices(cfg Config) error {
	dial := func(name, addr string) (*grpc.ClientConn, error) {
		if addr == "" {
			return nil, fmt.Errorf("%s service address required", name)
		}
		conn, err := rpc.Dial(addr, cfg.DialOptions...)
		if err != nil {
			return nil, fmt.Errorf("dial %s service: %w", name, err)
		}
		a.conns = append(a.conns, conn)
		return conn, nil
	}
	libConn, err := dial("library", cfg.LibraryServiceAddr)
	if err != nil {
		return err
	}
	bookConn, err := dial("book", cfg.BookServiceAddr)
	if err != nil {
		return err
	}
	userConn, err := dial("user", cfg.UserServiceAddr)
	if err != nil {
		return err
	}
	a.REST = Services{
		Libraries: rpc.NewLibraryClient(libConn, cfg.RPCTimeout),
		Books:     rpc.NewBookClient(bookConn, cfg.RPCTimeout),
		Users:     rpc.NewUserClient(userConn, cfg.RPCTimeout),
	}
	return nil
}

// RegisterRPC exposes the direct handlers on the given servers. A nil server
// skips that service.
func (a *App) RegisterRPC(libraries, books, users grpc.ServiceRegistrar) {
	if libraries != nil {
		rpc.RegisterLibraryService(libraries, a.Direct.Libraries)
	}
	if books != nil {
		rpc.RegisterBookService(books, a.Direct.Books)
	}
	if users != nil {
		rpc.RegisterUserService(users, a.Direct.Users)
	}
}

// Close releases RPC connections and, when App opened it, the store.
func (a *App) Close() error {
	var errs []error
	for _, conn := range a.conns {
		errs = append(errs, conn.Close())
	}
	a.conns = nil
	if a.ownsDB && a.db != nil {
		errs = append(errs, store.Close(a.db))
		a.db = nil
	}
	return errors.Join(errs...)
}
