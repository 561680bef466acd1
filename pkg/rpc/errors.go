package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"shelfhub/pkg/entity"
)

// toStatus converts an entity error into a gRPC status error. Only the
// public message crosses the wire.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	msg := entity.PublicMessage(err)
	switch entity.KindOf(err) {
	case entity.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case entity.KindInvalid:
		return status.Error(codes.InvalidArgument, msg)
	}
	if errors.Is(err, entity.ErrAlreadyExists) {
		return status.Error(codes.AlreadyExists, msg)
	}
	return status.Error(codes.Internal, msg)
}

// fromStatus converts an error returned by a gRPC call back into the entity
// taxonomy. Transport failures and deadlines become Backend errors.
func fromStatus(name string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return entity.Backend(name, err)
	}
	switch st.Code() {
	case codes.NotFound:
		return entity.NotFound(name)
	case codes.InvalidArgument:
		return entity.Invalid(name, st.Message())
	case codes.AlreadyExists:
		return entity.Backend(name, fmt.Errorf("%w: %s", entity.ErrAlreadyExists, st.Message()))
	default:
		return entity.Backend(name, err)
	}
}
