package codec

import (
	"context"
	"math/rand"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/imitate/internal/frame"
	"github.com/danielpatrickdp/imitate/internal/learning"
	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region helpers
func startServer(t *testing.T, backend learning.Backend) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterFeedbackServiceServer(srv, NewServer(backend))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

type blankFrame struct{}

func (blankFrame) Copy() frame.Frame  { return blankFrame{} }
func (blankFrame) Wrap([]frame.Frame) {}
func (blankFrame) Empty() bool        { return false }

// #endregion helpers

func TestRemoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := learning.NewMemoryBackend()
	client := startServer(t, backend)

	for _, score := range []int{1, 3} {
		err := client.AddObservation(ctx, learning.Observation{Prior: "text", Subsequent: "g (text)", Score: score})
		if err != nil {
			t.Fatalf("AddObservation: %v", err)
		}
	}
	stats, err := client.Stats(ctx, "text")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Count != 2 || stats[0].Cumulative != 4 {
		t.Fatalf("stats = %+v", stats)
	}

	// read-after-write through the server's backend
	local, _ := backend.Stats(ctx, "text")
	if len(local) != 1 || local[0] != stats[0] {
		t.Errorf("backend = %+v", local)
	}
}

func TestRemoteSharedLearning(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, learning.NewMemoryBackend())
	rec := learning.NewRecorder(client)

	reg := registry.New(nil)
	reg.RegisterPure("g", 1, func([]frame.Frame) (frame.Frame, bool) { return blankFrame{}, true })

	for i := 0; i < 2; i++ {
		s := session.New(blankFrame{}, session.Options{Registry: reg, Persistence: rec, Rand: rand.New(rand.NewSource(1))})
		if _, _, err := s.ImitatedStep(ctx, "a = g text;"); err != nil {
			t.Fatal(err)
		}
		if err := rec.Update(ctx, s, 1); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	best, ok, err := rec.BestFor(ctx, "text", 2)
	if err != nil || !ok || best != "g (text)" {
		t.Fatalf("BestFor = %q %v %v", best, ok, err)
	}
}

func TestServerRejectsMalformed(t *testing.T) {
	srv := NewServer(learning.NewMemoryBackend())
	in, _ := structpb.NewStruct(map[string]any{"prior": 3})
	_, err := srv.Stats(context.Background(), in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v", status.Code(err))
	}
	_, err = srv.AddObservation(context.Background(), in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v", status.Code(err))
	}
}
