package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
)

const bookServiceName = "book.BookService"

type GetBookRequest struct {
	BookID int64 `json:"book_id"`
}

type SearchBooksRequest struct{}

type CreateBookRequest struct {
	BookID      int64  `json:"book_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateBookRequest struct {
	BookID      int64  `json:"book_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DeleteBookRequest struct {
	BookID int64 `json:"book_id"`
}

type BookResponse struct {
	Book *domain.Book `json:"book"`
}

type SearchBooksResponse struct {
	Books []domain.Book `json:"books"`
}

type DeleteBookResponse struct{}

// BookServiceServer is the server API for book.BookService.
type BookServiceServer interface {
	GetBook(context.Context, *GetBookRequest) (*BookResponse, error)
	SearchBooks(context.Context, *SearchBooksRequest) (*SearchBooksResponse, error)
	CreateBook(context.Context, *CreateBookRequest) (*BookResponse, error)
	UpdateBook(context.Context, *UpdateBookRequest) (*BookResponse, error)
	DeleteBook(context.Context, *DeleteBookRequest) (*DeleteBookResponse, error)
}

var bookServiceDesc = grpc.ServiceDesc{
	ServiceName: bookServiceName,
	HandlerType: (*BookServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBook", Handler: unaryHandler("/"+bookServiceName+"/GetBook", BookServiceServer.GetBook)},
		{MethodName: "SearchBooks", Handler: unaryHandler("/"+bookServiceName+"/SearchBooks", BookServiceServer.SearchBooks)},
		{MethodName: "CreateBook", Handler: unaryHandler("/"+bookServiceName+"/CreateBook", BookServiceServer.CreateBook)},
		{MethodName: "UpdateBook", Handler: unaryHandler("/"+bookServiceName+"/UpdateBook", BookServiceServer.UpdateBook)},
		{MethodName: "DeleteBook", Handler: unaryHandler("/"+bookServiceName+"/DeleteBook", BookServiceServer.DeleteBook)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "book.proto",
}

// RegisterBookService exposes svc as book.BookService on s.
func RegisterBookService(s grpc.ServiceRegistrar, svc entity.BookService) {
	s.RegisterService(&bookServiceDesc, &bookServer{svc: svc})
}

type bookServer struct {
	svc entity.BookService
}

func (s *bookServer) GetBook(ctx context.Context, req *GetBookRequest) (*BookResponse, error) {
	bk, err := s.svc.Get(ctx, req.BookID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &BookResponse{Book: &bk}, nil
}

func (s *bookServer) SearchBooks(ctx context.Context, _ *SearchBooksRequest) (*SearchBooksResponse, error) {
	bks, err := s.svc.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchBooksResponse{Books: bks}, nil
}

func (s *bookServer) CreateBook(ctx context.Context, req *CreateBookRequest) (*BookResponse, error) {
	bk, err := s.svc.Create(ctx, domain.Book{ID: req.BookID, Title: req.Title, Description: req.Description})
	if err != nil {
		return nil, toStatus(err)
	}
	return &BookResponse{Book: &bk}, nil
}

func (s *bookServer) UpdateBook(ctx context.Context, req *UpdateBookRequest) (*BookResponse, error) {
	bk, err := s.svc.Update(ctx, domain.Book{ID: req.BookID, Title: req.Title, Description: req.Description})
	if err != nil {
		return nil, toStatus(err)
	}
	return &BookResponse{Book: &bk}, nil
}

func (s *bookServer) DeleteBook(ctx context.Context, req *DeleteBookRequest) (*DeleteBookResponse, error) {
	if err := s.svc.Delete(ctx, req.BookID); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteBookResponse{}, nil
}

// BookClient implements entity.BookService on top of book.BookService.
type BookClient struct {
	c caller
}

// NewBookClient wraps cc. A non-positive timeout selects DefaultTimeout.
func NewBookClient(cc grpc.ClientConnInterface, timeout time.Duration) *BookClient {
	return &BookClient{c: newCaller(cc, timeout)}
}

func (c *BookClient) Get(ctx context.Context, id int64) (domain.Book, error) {
	var out BookResponse
	if err := c.c.invoke(ctx, "/"+bookServiceName+"/GetBook", &GetBookRequest{BookID: id}, &out); err != nil {
		return domain.Book{}, fromStatus("Book", err)
	}
	if out.Book == nil {
		return domain.Book{}, entity.NotFound("Book")
	}
	return *out.Book, nil
}

func (c *BookClient) List(ctx context.Context) ([]domain.Book, error) {
	var out SearchBooksResponse
	if err := c.c.invoke(ctx, "/"+bookServiceName+"/SearchBooks", &SearchBooksRequest{}, &out); err != nil {
		return nil, fromStatus("Book", err)
	}
	if out.Books == nil {
		return []domain.Book{}, nil
	}
	return out.Books, nil
}

func (c *BookClient) Create(ctx context.Context, bk domain.Book) (domain.Book, error) {
	var out BookResponse
	in := &CreateBookRequest{BookID: bk.ID, Title: bk.Title, Description: bk.Description}
	if err := c.c.invoke(ctx, "/"+bookServiceName+"/CreateBook", in, &out); err != nil {
		return domain.Book{}, fromStatus("Book", err)
	}
	return valueOr(out.Book, bk), nil
}

func (c *BookClient) Update(ctx context.Context, bk domain.Book) (domain.Book, error) {
	var out BookResponse
	in := &UpdateBookRequest{BookID: bk.ID, Title: bk.Title, Description: bk.Description}
	if err := c.c.invoke(ctx, "/"+bookServiceName+"/UpdateBook", in, &out); err != nil {
		return domain.Book{}, fromStatus("Book", err)
	}
	return valueOr(out.Book, bk), nil
}

func (c *BookClient) Delete(ctx context.Context, id int64) error {
	var out DeleteBookResponse
	if err := c.c.invoke(ctx, "/"+bookServiceName+"/DeleteBook", &DeleteBookRequest{BookID: id}, &out); err != nil {
		return fromStatus("Book", err)
	}
	return nil
}
