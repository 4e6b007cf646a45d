package armsim

import (
	"context"
	"fmt"
	"strings"

	"github.com/teslashibe/go-nedvision/internal/httpc"
)

// Client talks to a simulator Server.
type Client struct {
	base string
}

// NewClient returns a client for the server at base, e.g.
// "http://127.0.0.1:5000".
func NewClient(base string) *Client {
	return &Client{base: strings.TrimRight(base, "/")}
}

// GetState fetches the current joints.
func (c *Client) GetState(ctx context.Context) (Joints, error) {
	var st State
	if err := httpc.GetJSON(ctx, c.base+"/get_state", &st); err != nil {
		return Joints{}, fmt.Errorf("armsim: get state: %w", err)
	}
	if len(st.Joints) != NumJoints {
		return Joints{}, fmt.Errorf("armsim: got %d joints, want %d", len(st.Joints), NumJoints)
	}
	var j Joints
	copy(j[:], st.Joints)
	return j, nil
}

// Home starts a move to HomePose and returns the server's reply.
func (c *Client) Home(ctx context.Context) (string, error) {
	return c.post(ctx, "/home")
}

// Rest starts a move to RestPose and returns the server's reply.
func (c *Client) Rest(ctx context.Context) (string, error) {
	return c.post(ctx, "/rest")
}

func (c *Client) post(ctx context.Context, path string) (string, error) {
	resp, err := httpc.Post(ctx, c.base+path, "", nil)
	if err != nil {
		return "", fmt.Errorf("armsim: %s: %w", path, err)
	}
	body, err := httpc.ReadBody(resp)
	if err != nil {
		return "", fmt.Errorf("armsim: %s: %w", path, err)
	}
	return string(body), nil
}
