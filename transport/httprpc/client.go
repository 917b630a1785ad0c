package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.chordring.dev/chordring/chord"
)

// Client is a chord.NodeClient that reaches a peer over HTTP. It is
// stateless beyond the descriptor it was dialed with: HTTP's own
// connection pooling makes an explicit persistent-connection concept
// unnecessary, so Close is a no-op.
type Client struct {
	httpClient *http.Client
	info       chord.Descriptor
}

var _ chord.NodeClient = (*Client)(nil)

// Dial matches chord.Dialer; it never fails since no connection is
// actually established until the first call.
func Dial(ctx context.Context, d chord.Descriptor) (chord.NodeClient, error) {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		info:       d,
	}, nil
}

func (c *Client) ID() uint64 { return c.info.ID }
func (c *Client) Info() chord.Descriptor { return c.info }
func (c *Client) Close() error { return nil }

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.info.URI, path)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("%w: %v", chord.ErrUnreachable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", chord.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		return errors.New(eb.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) Active(ctx context.Context) (bool, error) {
	var out struct {
		Active bool `json:"active"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/active", nil, &out); err != nil {
		return false, err
	}
	return out.Active, nil
}

func (c *Client) Successor(ctx context.Context) (chord.Descriptor, error) {
	var out descriptorDTO
	if err := c.do(ctx, http.MethodGet, "/v1/successor", nil, &out); err != nil {
		return chord.Descriptor{}, err
	}
	return fromDTO(out), nil
}

func (c *Client) Predecessor(ctx context.Context) (*chord.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/v1/predecessor"), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chord.ErrUnreachable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chord.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		return nil, errors.New(eb.Error)
	}
	var out descriptorDTO
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	d := fromDTO(out)
	return &d, nil
}

func (c *Client) SuccessorList(ctx context.Context) ([]chord.Descriptor, error) {
	var out []descriptorDTO
	if err := c.do(ctx, http.MethodGet, "/v1/successors", nil, &out); err != nil {
		return nil, err
	}
	return fromDTOList(out), nil
}

func (c *Client) FindSuccessor(ctx context.Context, id uint64) (chord.Descriptor, error) {
	var out descriptorDTO
	path := fmt.Sprintf("/v1/find-successor/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return chord.Descriptor{}, err
	}
	return fromDTO(out), nil
}

func (c *Client) FindPredecessor(ctx context.Context, id uint64) (chord.Descriptor, error) {
	var out descriptorDTO
	path := fmt.Sprintf("/v1/find-predecessor/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return chord.Descriptor{}, err
	}
	return fromDTO(out), nil
}

func (c *Client) ClosestPrecedingFinger(ctx context.Context, id uint64) (chord.Descriptor, error) {
	var out descriptorDTO
	path := fmt.Sprintf("/v1/closest-preceding-finger/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return chord.Descriptor{}, err
	}
	return fromDTO(out), nil
}

func (c *Client) Notify(ctx context.Context, candidate chord.Descriptor) error {
	return c.do(ctx, http.MethodPost, "/v1/notify", notifyRequest{Predecessor: toDTO(candidate)}, nil)
}

func (c *Client) NotifyPredecessorLeaving(ctx context.Context, node chord.Descriptor, newPredecessor *chord.Descriptor) error {
	body := notifyPredecessorLeavingRequest{Node: toDTO(node)}
	if newPredecessor != nil {
		dto := toDTO(*newPredecessor)
		body.NewPredecessor = &dto
	}
	return c.do(ctx, http.MethodPost, "/v1/notify-predecessor-leaving", body, nil)
}

func (c *Client) NotifySuccessorLeaving(ctx context.Context, node chord.Descriptor, successors []chord.Descriptor) error {
	body := notifySuccessorLeavingRequest{Node: toDTO(node), Successors: toDTOList(successors)}
	return c.do(ctx, http.MethodPost, "/v1/notify-successor-leaving", body, nil)
}

func (c *Client) SuccessorCandidates(ctx context.Context, id uint64, max int) ([]chord.Descriptor, error) {
	var out []descriptorDTO
	path := fmt.Sprintf("/v1/successor-candidates/%d?max=%d", id, max)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return fromDTOList(out), nil
}
