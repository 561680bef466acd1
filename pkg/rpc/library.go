package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
)

const libraryServiceName = "library.LibraryService"

type GetLibraryRequest struct {
	LibraryID int64 `json:"library_id"`
}

type SearchLibrarysRequest struct{}

type CreateLibraryRequest struct {
	LibraryID   int64  `json:"library_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateLibraryRequest struct {
	LibraryID   int64  `json:"library_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DeleteLibraryRequest struct {
	LibraryID int64 `json:"library_id"`
}

type LibraryResponse struct {
	Library *domain.Library `json:"library"`
}

type SearchLibrarysResponse struct {
	Librarys []domain.Library `json:"librarys"`
}

type DeleteLibraryResponse struct{}

// LibraryServiceServer is the server API for library.LibraryService.
type LibraryServiceServer interface {
	GetLibrary(context.Context, *GetLibraryRequest) (*LibraryResponse, error)
	SearchLibrarys(context.Context, *SearchLibrarysRequest) (*SearchLibrarysResponse, error)
	CreateLibrary(context.Context, *CreateLibraryRequest) (*LibraryResponse, error)
	UpdateLibrary(context.Context, *UpdateLibraryRequest) (*LibraryResponse, error)
	DeleteLibrary(context.Context, *DeleteLibraryRequest) (*DeleteLibraryResponse, error)
}

var libraryServiceDesc = grpc.ServiceDesc{
	ServiceName: libraryServiceName,
	HandlerType: (*LibraryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetLibrary", Handler: unaryHandler("/"+libraryServiceName+"/GetLibrary", LibraryServiceServer.GetLibrary)},
		{MethodName: "SearchLibrarys", Handler: unaryHandler("/"+libraryServiceName+"/SearchLibrarys", LibraryServiceServer.SearchLibrarys)},
		{MethodName: "CreateLibrary", Handler: unaryHandler("/"+libraryServiceName+"/CreateLibrary", LibraryServiceServer.CreateLibrary)},
		{MethodName: "UpdateLibrary", Handler: unaryHandler("/"+libraryServiceName+"/UpdateLibrary", LibraryServiceServer.UpdateLibrary)},
		{MethodName: "DeleteLibrary", Handler: unaryHandler("/"+libraryServiceName+"/DeleteLibrary", LibraryServiceServer.DeleteLibrary)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "library.proto",
}

// RegisterLibraryService exposes svc as library.LibraryService on s.
func RegisterLibraryService(s grpc.ServiceRegistrar, svc entity.LibraryService) {
	s.RegisterService(&libraryServiceDesc, &libraryServer{svc: svc})
}

type libraryServer struct {
	svc entity.LibraryService
}

func (s *libraryServer) GetLibrary(ctx context.Context, req *GetLibraryRequest) (*LibraryResponse, error) {
	lib, err := s.svc.Get(ctx, req.LibraryID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LibraryResponse{Library: &lib}, nil
}

func (s *libraryServer) SearchLibrarys(ctx context.Context, _ *SearchLibrarysRequest) (*SearchLibrarysResponse, error) {
	libs, err := s.svc.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchLibrarysResponse{Librarys: libs}, nil
}

func (s *libraryServer) CreateLibrary(ctx context.Context, req *CreateLibraryRequest) (*LibraryResponse, error) {
	lib, err := s.svc.Create(ctx, domain.Library{ID: req.LibraryID, Title: req.Title, Description: req.Description})
	if err != nil {
		return nil, toStatus(err)
	}
	return &LibraryResponse{Library: &lib}, nil
}

func (s *libraryServer) UpdateLibrary(ctx context.Context, req *UpdateLibraryRequest) (*LibraryResponse, error) {
	lib, err := s.svc.Update(ctx, domain.Library{ID: req.LibraryID, Title: req.Title, Description: req.Description})
	if err != nil {
		return nil, toStatus(err)
	}
	return &LibraryResponse{Library: &lib}, nil
}

func (s *libraryServer) DeleteLibrary(ctx context.Context, req *DeleteLibraryRequest) (*DeleteLibraryResponse, error) {
	if err := s.svc.Delete(ctx, req.LibraryID); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteLibraryResponse{}, nil
}

// LibraryClient implements entity.LibraryService on top of library.LibraryService.
type LibraryClient struct {
	c caller
}

// NewLibraryClient wraps cc. A non-positive timeout selects DefaultTimeout.
func NewLibraryClient(cc grpc.ClientConnInterface, timeout time.Duration) *LibraryClient {
	return &LibraryClient{c: newCaller(cc, timeout)}
}

func (c *LibraryClient) Get(ctx context.Context, id int64) (domain.Library, error) {
	var out LibraryResponse
	if err := c.c.invoke(ctx, "/"+libraryServiceName+"/GetLibrary", &GetLibraryRequest{LibraryID: id}, &out); err != nil {
		return domain.Library{}, fromStatus("Library", err)
	}
	if out.Library == nil {
		return domain.Library{}, entity.NotFound("Library")
	}
	return *out.Library, nil
}

func (c *LibraryClient) List(ctx context.Context) ([]domain.Library, error) {
	var out SearchLibrarysResponse
	if err := c.c.invoke(ctx, "/"+libraryServiceName+"/SearchLibrarys", &SearchLibrarysRequest{}, &out); err != nil {
		return nil, fromStatus("Library", err)
	}
	if out.Librarys == nil {
		return []domain.Library{}, nil
	}
	return out.Librarys, nil
}

func (c *LibraryClient) Create(ctx context.Context, lib domain.Library) (domain.Library, error) {
	var out LibraryResponse
	in := &CreateLibraryRequest{LibraryID: lib.ID, Title: lib.Title, Description: lib.Description}
	if err := c.c.invoke(ctx, "/"+libraryServiceName+"/CreateLibrary", in, &out); err != nil {
		return domain.Library{}, fromStatus("Library", err)
	}
	return valueOr(out.Library, lib), nil
}

func (c *LibraryClient) Update(ctx context.Context, lib domain.Library) (domain.Library, error) {
	var out LibraryResponse
	in := &UpdateLibraryRequest{LibraryID: lib.ID, Title: lib.Title, Description: lib.Description}
	if err := c.c.invoke(ctx, "/"+libraryServiceName+"/UpdateLibrary", in, &out); err != nil {
		return domain.Library{}, fromStatus("Library", err)
	}
	return valueOr(out.Library, lib), nil
}

func (c *LibraryClient) Delete(ctx context.Context, id int64) error {
	var out DeleteLibraryResponse
	if err := c.c.invoke(ctx, "/"+libraryServiceName+"/DeleteLibrary", &DeleteLibraryRequest{LibraryID: id}, &out); err != nil {
		return fromStatus("Library", err)
	}
	return nil
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
