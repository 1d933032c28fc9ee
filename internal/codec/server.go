package codec

import (
	"context"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/imitate/internal/learning"
)

// Server exposes a learning.Backend over gRPC.
type Server struct {
	backend learning.Backend
}

// NewServer wraps backend.
func NewServer(backend learning.Backend) *Server {
	return &Server{backend: backend}
}

func (s *Server) Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	prior, err := stringField(in, "prior")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	stats, err := s.backend.Stats(ctx, prior)
	if err != nil {
		log.Printf("[CODEC] stats %q: %v", prior, err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := encodeStats(stats)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) AddObservation(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	obs, err := decodeObservation(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.backend.AddObservation(ctx, obs); err != nil {
		log.Printf("[CODEC] add observation %q -> %q: %v", obs.Prior, obs.Subsequent, err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &emptypb.Empty{}, nil
}
