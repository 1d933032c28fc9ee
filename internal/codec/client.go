package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/danielpatrickdp/imitate/internal/learning"
)

// #region client-struct
// Client is a learning.Backend served by a remote feedback service, so
// several processes can share one store.
type Client struct {
	conn   *grpc.ClientConn
	client FeedbackServiceClient
}
// #endregion client-struct

// #region constructor
// NewClient connects to a feedback service.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewFeedbackServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc FeedbackServiceClient) *Client {
	return &Client{client: svc}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region stats
// Stats fetches the stats recorded after prior.
func (c *Client) Stats(ctx context.Context, prior string) ([]learning.FeedbackStats, error) {
	req, err := encodeStatsRequest(prior)
	if err != nil {
		return nil, fmt.Errorf("encode stats request: %w", err)
	}
	resp, err := c.client.Stats(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("stats rpc: %w", err)
	}
	stats, err := decodeStats(resp)
	if err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
// #endregion stats

// #region add-observation
// AddObservation records one observation remotely.
func (c *Client) AddObservation(ctx context.Context, obs learning.Observation) error {
	req, err := encodeObservation(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	if _, err := c.client.AddObservation(ctx, req); err != nil {
		return fmt.Errorf("add observation rpc: %w", err)
	}
	return nil
}
// #endregion add-observation
