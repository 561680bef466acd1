// Package rpc exposes the entity handlers as gRPC services and provides
// clients implementing entity.Service over those services.
//
// Messages are plain Go structs carried by a JSON codec registered under the
// "json" content-subtype, so no generated protobuf code is involved. Clients
// created with Dial select the codec automatically.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
