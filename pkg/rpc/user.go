package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
)

const userServiceName = "user.UserService"

type GetUserRequest struct {
	UserID int64 `json:"user_id"`
}

type SearchUsersRequest struct{}

type CreateUserRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UpdateUserRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type DeleteUserRequest struct {
	UserID int64 `json:"user_id"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

type SearchUsersResponse struct {
	Users []domain.User `json:"users"`
}

type DeleteUserResponse struct{}

// UserServiceServer is the server API for user.UserService.
type UserServiceServer interface {
	GetUser(context.Context, *GetUserRequest) (*UserResponse, error)
	SearchUsers(context.Context, *SearchUsersRequest) (*SearchUsersResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error)
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: userServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUser", Handler: unaryHandler("/"+userServiceName+"/GetUser", UserServiceServer.GetUser)},
		{MethodName: "SearchUsers", Handler: unaryHandler("/"+userServiceName+"/SearchUsers", UserServiceServer.SearchUsers)},
		{MethodName: "CreateUser", Handler: unaryHandler("/"+userServiceName+"/CreateUser", UserServiceServer.CreateUser)},
		{MethodName: "UpdateUser", Handler: unaryHandler("/"+userServiceName+"/UpdateUser", UserServiceServer.UpdateUser)},
		{MethodName: "DeleteUser", Handler: unaryHandler("/"+userServiceName+"/DeleteUser", UserServiceServer.DeleteUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user.proto",
}

// RegisterUserService exposes svc as user.UserService on s.
func RegisterUserService(s grpc.ServiceRegistrar, svc entity.UserService) {
	s.RegisterService(&userServiceDesc, &userServer{svc: svc})
}

type userServer struct {
	svc entity.UserService
}

func (s *userServer) GetUser(ctx context.Context, req *GetUserRequest) (*UserResponse, error) {
	u, err := s.svc.Get(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &UserResponse{User: &u}, nil
}

func (s *userServer) SearchUsers(ctx context.Context, _ *SearchUsersRequest) (*SearchUsersResponse, error) {
	users, err := s.svc.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchUsersResponse{Users: users}, nil
}

func (s *userServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error) {
	u, err := s.svc.Create(ctx, domain.User{ID: req.UserID, Username: req.Username, Password: req.Password, Email: req.Email})
	if err != nil {
		return nil, toStatus(err)
	}
	return &UserResponse{User: &u}, nil
}

func (s *userServer) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	u, err := s.svc.Update(ctx, domain.User{ID: req.UserID, Username: req.Username, Password: req.Password, Email: req.Email})
	if err != nil {
		return nil, toStatus(err)
	}
	return &UserResponse{User: &u}, nil
}

func (s *userServer) DeleteUser(ctx context.Context, req *DeleteUserRequest) (*DeleteUserResponse, error) {
	if err := s.svc.Delete(ctx, req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteUserResponse{}, nil
}

// UserClient implements entity.UserService on top of user.UserService.
type UserClient struct {
	c caller
}

// NewUserClient wraps cc. A non-positive timeout selects DefaultTimeout.
func NewUserClient(cc grpc.ClientConnInterface, timeout time.Duration) *UserClient {
	return &UserClient{c: newCaller(cc, timeout)}
}

func (c *UserClient) Get(ctx context.Context, id int64) (domain.User, error) {
	var out UserResponse
	if err := c.c.invoke(ctx, "/"+userServiceName+"/GetUser", &GetUserRequest{UserID: id}, &out); err != nil {
		return domain.User{}, fromStatus("User", err)
	}
	if out.User == nil {
		return domain.User{}, entity.NotFound("User")
	}
	return *out.User, nil
}

func (c *UserClient) List(ctx context.Context) ([]domain.User, error) {
	var out SearchUsersResponse
	if err := c.c.invoke(ctx, "/"+userServiceName+"/SearchUsers", &SearchUsersRequest{}, &out); err != nil {
		return nil, fromStatus("User", err)
	}
	if out.Users == nil {
		return []domain.User{}, nil
	}
	return out.Users, nil
}

func (c *UserClient) Create(ctx context.Context, u domain.User) (domain.User, error) {
	var out UserResponse
	in := &CreateUserRequest{UserID: u.ID, Username: u.Username, Password: u.Password, Email: u.Email}
	if err := c.c.invoke(ctx, "/"+userServiceName+"/CreateUser", in, &out); err != nil {
		return domain.User{}, fromStatus("User", err)
	}
	return valueOr(out.User, u), nil
}

func (c *UserClient) Update(ctx context.Context, u domain.User) (domain.User, error) {
	var out UserResponse
	in := &UpdateUserRequest{UserID: u.ID, Username: u.Username, Password: u.Password, Email: u.Email}
	if err := c.c.invoke(ctx, "/"+userServiceName+"/UpdateUser", in, &out); err != nil {
		return domain.User{}, fromStatus("User", err)
	}
	return valueOr(out.User, u), nil
}

func (c *UserClient) Delete(ctx context.Context, id int64) error {
	var out DeleteUserResponse
	if err := c.c.invoke(ctx, "/"+userServiceName+"/DeleteUser", &DeleteUserRequest{UserID: id}, &out); err != nil {
		return fromStatus("User", err)
	}
	return nil
}
