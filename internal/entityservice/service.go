package entityservice

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"gorm.io/gorm"
	"shelfhub/pkg/entity"
	"shelfhub/pkg/rpc"
	"shelfhub/pkg/store"
)

// ErrUnknownService is returned for a service name other than library, book
// or user.
var ErrUnknownService = errors.New("unknown entity service")

// Register exposes the named entity's handler over db on s.
func Register(s grpc.ServiceRegistrar, service string, db *gorm.DB) error {
	switch service {
	case "library":
		rpc.RegisterLibraryService(s, entity.NewLibraryHandler(store.NewLibraryTable(db)))
	case "book":
		rpc.RegisterBookService(s, entity.NewBookHandler(store.NewBookTable(db)))
	case "user":
		rpc.RegisterUserService(s, entity.NewUserHandler(store.NewUserTable(db)))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	return nil
}

// Run opens the store and serves the named entity until ctx is done.
func Run(ctx context.Context, service string, cfg Config) error {
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close(db)

	srv := rpc.NewServer()
	if err := Register(srv, service, db); err != nil {
		return err
	}
	return rpc.Serve(ctx, srv, ":"+cfg.Port)
}
