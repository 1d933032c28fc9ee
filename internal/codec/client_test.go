package codec

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/imitate/internal/learning"
)

// #region mock
type mockFeedbackService struct {
	statsResp *structpb.Struct
	statsErr  error
	lastStats *structpb.Struct

	addErr  error
	lastAdd *structpb.Struct
}

func (m *mockFeedbackService) Stats(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastStats = in
	return m.statsResp, m.statsErr
}

func (m *mockFeedbackService) AddObservation(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	m.lastAdd = in
	return &emptypb.Empty{}, m.addErr
}

// #endregion mock

// #region constructor-tests
func TestNewClientLazyDial(t *testing.T) {
	client, err := NewClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewClientWithService(t *testing.T) {
	c := NewClientWithService(&mockFeedbackService{})
	if c == nil || c.client == nil {
		t.Fatal("expected non-nil client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("close without conn: %v", err)
	}
}

// #endregion constructor-tests

// #region stats-tests
func TestStats_Success(t *testing.T) {
	resp, err := encodeStats([]learning.FeedbackStats{
		{Prior: "text", Subsequent: "f (text)", Count: 2, Cumulative: 3},
		{Prior: "text", Subsequent: "g (text)", Count: 1, Cumulative: -1},
	})
	if err != nil {
		t.Fatal(err)
	}
	mock := &mockFeedbackService{statsResp: resp}
	c := NewClientWithService(mock)

	stats, err := c.Stats(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
	if stats[0].Subsequent != "f (text)" || stats[0].Count != 2 || stats[0].Cumulative != 3 {
		t.Errorf("first = %+v", stats[0])
	}
	if stats[1].Cumulative != -1 {
		t.Errorf("negative cumulative lost: %+v", stats[1])
	}
	if got, _ := stringField(mock.lastStats, "prior"); got != "text" {
		t.Errorf("request prior = %q", got)
	}
}

func TestStats_Error(t *testing.T) {
	c := NewClientWithService(&mockFeedbackService{statsErr: errors.New("unavailable")})
	if _, err := c.Stats(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
}

func TestStats_Malformed(t *testing.T) {
	bad, _ := structpb.NewStruct(map[string]any{"stats": []any{"nope"}})
	c := NewClientWithService(&mockFeedbackService{statsResp: bad})
	_, err := c.Stats(context.Background(), "text")
	if !errors.Is(err, errMalformed) {
		t.Fatalf("err = %v, want errMalformed", err)
	}
}

// #endregion stats-tests

// #region add-tests
func TestAddObservation_Encodes(t *testing.T) {
	mock := &mockFeedbackService{}
	c := NewClientWithService(mock)
	obs := learning.Observation{Prior: "text", Subsequent: "~f (text)", Score: -4, SessionID: "s1"}
	if err := c.AddObservation(context.Background(), obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := decodeObservation(mock.lastAdd)
	if err != nil {
		t.Fatal(err)
	}
	if got != obs {
		t.Errorf("decoded %+v, want %+v", got, obs)
	}
}

func TestAddObservation_Error(t *testing.T) {
	c := NewClientWithService(&mockFeedbackService{addErr: errors.New("boom")})
	if err := c.AddObservation(context.Background(), learning.Observation{}); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion add-tests
