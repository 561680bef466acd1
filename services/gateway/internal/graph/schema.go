// Package graph serves the GraphQL API over the entity services.
//
// Every scalar is String! on the wire. Identifiers are parsed into int64;
// a non-numeric id is an invalid-argument error. Lookups and updates of a
// missing id resolve to null.
package graph

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"shelfhub/internal/metrics"
	"shelfhub/internal/util"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
)

var nonNullString = graphql.NewNonNull(graphql.String)

func stringFields(names ...string) graphql.Fields {
	fields := graphql.Fields{}
	for _, name := range names {
		fields[name] = &graphql.Field{Type: nonNullString}
	}
	return fields
}

func stringArgs(names ...string) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, name := range names {
		args[name] = &graphql.ArgumentConfig{Type: nonNullString}
	}
	return args
}

var (
	libraryType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Library",
		Fields: stringFields("id", "title", "description"),
	})
	bookType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "Book",
		Fields: stringFields("id", "title", "description"),
	})
	userType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "User",
		Fields: stringFields("id", "username", "password", "email"),
	})
)

type resolver struct {
	libraries entity.LibraryService
	books     entity.BookService
	users     entity.UserService
}

// NewSchema builds the query and mutation roots over the given services.
func NewSchema(libraries entity.LibraryService, books entity.BookService, users entity.UserService) (graphql.Schema, error) {
	if libraries == nil || books == nil || users == nil {
		return graphql.Schema{}, errors.New("graph: library, book and user services are required")
	}
	r := &resolver{libraries: libraries, books: books, users: users}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"library":  {Type: libraryType, Args: stringArgs("id"), Resolve: r.library},
			"librarys": {Type: graphql.NewList(libraryType), Resolve: r.librarys},
			"book":     {Type: bookType, Args: stringArgs("id"), Resolve: r.book},
			"books":    {Type: graphql.NewList(bookType), Resolve: r.bookList},
			"user":     {Type: userType, Args: stringArgs("id"), Resolve: r.user},
			"users":    {Type: graphql.NewList(userType), Resolve: r.userList},
		},
	})

	titled := stringArgs("id", "title", "description")
	account := stringArgs("id", "username", "password", "email")
	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"CreateLibrary": {Type: libraryType, Args: titled, Resolve: r.createLibrary},
			"UpdateLibrary": {Type: libraryType, Args: titled, Resolve: r.updateLibrary},
			"DeleteLibrary": {Type: libraryType, Args: stringArgs("id"), Resolve: r.deleteLibrary},
			"CreateBook":    {Type: bookType, Args: titled, Resolve: r.createBook},
			"UpdateBook":    {Type: bookType, Args: titled, Resolve: r.updateBook},
			"DeleteBook":    {Type: bookType, Args: stringArgs("id"), Resolve: r.deleteBook},
			"CreateUser":    {Type: userType, Args: account, Resolve: r.createUser},
			"UpdateUser":    {Type: userType, Args: account, Resolve: r.updateUser},
			"DeleteUser":    {Type: userType, Args: stringArgs("id"), Resolve: r.deleteUser},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (r *resolver) library(p graphql.ResolveParams) (any, error) {
	return resolveOne(p, "Library", "get", r.libraries, libraryObject)
}

func (r *resolver) librarys(p graphql.ResolveParams) (any, error) {
	return resolveList(p, "Library", r.libraries, libraryObject)
}

func (r *resolver) createLibrary(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "Library", "create", r.libraries.Create, libraryFromArgs, libraryObject)
}

func (r *resolver) updateLibrary(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "Library", "update", r.libraries.Update, libraryFromArgs, libraryObject)
}

func (r *resolver) deleteLibrary(p graphql.ResolveParams) (any, error) {
	return resolveDelete(p, "Library", r.libraries, "title", "description")
}

func (r *resolver) book(p graphql.ResolveParams) (any, error) {
	return resolveOne(p, "Book", "get", r.books, bookObject)
}

func (r *resolver) bookList(p graphql.ResolveParams) (any, error) {
	return resolveList(p, "Book", r.books, bookObject)
}

func (r *resolver) createBook(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "Book", "create", r.books.Create, bookFromArgs, bookObject)
}

func (r *resolver) updateBook(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "Book", "update", r.books.Update, bookFromArgs, bookObject)
}

func (r *resolver) deleteBook(p graphql.ResolveParams) (any, error) {
	return resolveDelete(p, "Book", r.books, "title", "description")
}

func (r *resolver) user(p graphql.ResolveParams) (any, error) {
	return resolveOne(p, "User", "get", r.users, userObject)
}

func (r *resolver) userList(p graphql.ResolveParams) (any, error) {
	return resolveList(p, "User", r.users, userObject)
}

func (r *resolver) createUser(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "User", "create", r.users.Create, userFromArgs, userObject)
}

func (r *resolver) updateUser(p graphql.ResolveParams) (any, error) {
	return resolveWrite(p, "User", "update", r.users.Update, userFromArgs, userObject)
}

func (r *resolver) deleteUser(p graphql.ResolveParams) (any, error) {
	return resolveDelete(p, "User", r.users, "username", "password", "email")
}

func resolveOne[T any](p graphql.ResolveParams, name, op string, svc entity.Service[T], toObject func(T) map[string]any) (any, error) {
	id, err := parseID(name, p.Args)
	if err != nil {
		return nil, finish(p.Context, name, op, time.Now(), err)
	}
	start := time.Now()
	v, err := svc.Get(p.Context, id)
	if err != nil {
		return nil, finish(p.Context, name, op, start, err)
	}
	observe(name, op, start, nil)
	return toObject(v), nil
}

func resolveList[T any](p graphql.ResolveParams, name string, svc entity.Service[T], toObject func(T) map[string]any) (any, error) {
	start := time.Now()
	items, err := svc.List(p.Context)
	if err != nil {
		return nil, finish(p.Context, name, "list", start, err)
	}
	observe(name, "list", start, nil)
	out := make([]any, 0, len(items))
	for _, v := range items {
		out = append(out, toObject(v))
	}
	return out, nil
}

func resolveWrite[T any](
	p graphql.ResolveParams,
	name, op string,
	write func(context.Context, T) (T, error),
	fromArgs func(int64, map[string]any) T,
	toObject func(T) map[string]any,
) (any, error) {
	id, err := parseID(name, p.Args)
	if err != nil {
		return nil, finish(p.Context, name, op, time.Now(), err)
	}
	start := time.Now()
	v, err := write(p.Context, fromArgs(id, p.Args))
	if err != nil {
		return nil, finish(p.Context, name, op, start, err)
	}
	observe(name, op, start, nil)
	return toObject(v), nil
}

// resolveDelete echoes the id with the other fields blank.
func resolveDelete[T any](p graphql.ResolveParams, name string, svc entity.Service[T], blank ...string) (any, error) {
	id, err := parseID(name, p.Args)
	if err != nil {
		return nil, finish(p.Context, name, "delete", time.Now(), err)
	}
	start := time.Now()
	if err := svc.Delete(p.Context, id); err != nil {
		return nil, finish(p.Context, name, "delete", start, err)
	}
	observe(name, "delete", start, nil)
	out := map[string]any{"id": formatID(id)}
	for _, field := range blank {
		out[field] = ""
	}
	return out, nil
}

// finish records a failed operation and converts err into what the field
// resolves to: nil for NotFound, otherwise an error with a public message.
func finish(ctx context.Context, name, op string, start time.Time, err error) error {
	observe(name, op, start, err)
	switch entity.KindOf(err) {
	case entity.KindNotFound:
		return nil
	case entity.KindBackend:
		util.LoggerFromContext(ctx).Error("entity backend failure", "entity", name, "op", op, "err", err)
	}
	return errors.New(entity.PublicMessage(err))
}

func observe(name, op string, start time.Time, err error) {
	metrics.Observe("graphql", strings.ToLower(name), op, metrics.Result(err), time.Since(start))
}

func parseID(name string, args map[string]any) (int64, error) {
	raw, _ := args["id"].(string)
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, entity.Invalid(name, "invalid id")
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func arg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func libraryFromArgs(id int64, args map[string]any) domain.Library {
	return domain.Library{ID: id, Title: arg(args, "title"), Description: arg(args, "description")}
}

func bookFromArgs(id int64, args map[string]any) domain.Book {
	return domain.Book{ID: id, Title: arg(args, "title"), Description: arg(args, "description")}
}

func userFromArgs(id int64, args map[string]any) domain.User {
	return domain.User{ID: id, Username: arg(args, "username"), Password: arg(args, "password"), Email: arg(args, "email")}
}

func libraryObject(l domain.Library) map[string]any {
	return map[string]any{"id": formatID(l.ID), "title": l.Title, "description": l.Description}
}

func bookObject(b domain.Book) map[string]any {
	return map[string]any{"id": formatID(b.ID), "title": b.Title, "description": b.Description}
}

func userObject(u domain.User) map[string]any {
	return map[string]any{"id": formatID(u.ID), "username": u.Username, "password": u.Password, "email": u.Email}
}
