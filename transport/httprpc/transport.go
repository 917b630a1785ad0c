package httprpc

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.chordring.dev/chordring/chord"
	"go.chordring.dev/chordring/transport"
	"go.uber.org/zap"
)

// HTTPTransport is the production transport.Transport: it serves a Node's
// RPC surface over plain HTTP and dials peers the same way.
type HTTPTransport struct {
	logger *zap.Logger
	addr   string
	oracle *LivenessOracle
	server *http.Server
}

// NewHTTPTransport wires oracle into the server it serves, so its RTT
// samples are reachable through the /v1/rtt route. oracle may be nil, in
// which case that route reports itself unavailable.
func NewHTTPTransport(logger *zap.Logger, addr string, oracle *LivenessOracle) *HTTPTransport {
	return &HTTPTransport{logger: logger, addr: addr, oracle: oracle}
}

var _ transport.Transport = (*HTTPTransport)(nil)

func (t *HTTPTransport) Dial(ctx context.Context, d chord.Descriptor) (chord.NodeClient, error) {
	return Dial(ctx, d)
}

func (t *HTTPTransport) Serve(n *chord.Node) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", chord.ErrAddressInUse, err)
	}

	srv := NewServer(n, t.logger, t.oracle)
	t.server = &http.Server{Handler: srv.Handler()}

	go func() {
		if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.logger.Error("http transport stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

func (t *HTTPTransport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(context.Background())
}
