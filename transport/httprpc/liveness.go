package httprpc

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/montanaflynn/stats"
	"github.com/zhangyunhao116/skipmap"
	"go.chordring.dev/chordring/chord"
	"go.uber.org/zap"
)

const (
	defaultProbeRetries  = 1
	defaultProbeDelay    = 50 * time.Millisecond
	defaultSampleHistory = 32
)

type rttPoint struct {
	ms float64
}

type rttSamples struct {
	mu   sync.Mutex
	data []rttPoint
}

func (s *rttSamples) record(ms float64, keep int) {
	s.mu.Lock()
	if len(s.data) >= keep {
		s.data = s.data[1:]
	}
	s.data = append(s.data, rttPoint{ms: ms})
	s.mu.Unlock()
}

func (s *rttSamples) values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.data))
	for i, p := range s.data {
		out[i] = p.ms
	}
	return out
}

// LivenessOracle probes peers over HTTP and keeps a rolling window of
// round-trip-time samples per peer, exposed through Snapshot for operator
// introspection. It implements chord.LivenessProber.
type LivenessOracle struct {
	logger  *zap.Logger
	samples *skipmap.StringMap[*rttSamples]

	retries uint
	delay   time.Duration
	keep    int
}

var _ chord.LivenessProber = (*LivenessOracle)(nil)

func NewLivenessOracle(logger *zap.Logger) *LivenessOracle {
	return &LivenessOracle{
		logger:  logger,
		samples: skipmap.NewString[*rttSamples](),
		retries: defaultProbeRetries,
		delay:   defaultProbeDelay,
		keep:    defaultSampleHistory,
	}
}

// Alive pings d's /v1/active endpoint, retrying once on transient
// failures, and records the successful round trip's latency.
func (o *LivenessOracle) Alive(ctx context.Context, d chord.Descriptor) bool {
	client, err := Dial(ctx, d)
	if err != nil {
		return false
	}
	defer client.Close()

	var start time.Time
	err = retry.Do(func() error {
		start = time.Now()
		_, pingErr := client.Active(ctx)
		return pingErr
	},
		retry.Context(ctx),
		retry.Attempts(o.retries+1),
		retry.Delay(o.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		o.logger.Debug("liveness probe failed", zap.String("uri", d.URI), zap.Error(err))
		return false
	}

	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	c, _ := o.samples.LoadOrStoreLazy(d.URI, func() *rttSamples { return &rttSamples{} })
	c.record(elapsed, o.keep)
	return true
}

// Snapshot reports the min/avg/max/stddev round-trip time (in
// milliseconds) observed for uri, or ok=false if nothing has been
// recorded yet.
func (o *LivenessOracle) Snapshot(uri string) (min, avg, max, stddev float64, ok bool) {
	c, found := o.samples.Load(uri)
	if !found {
		return 0, 0, 0, 0, false
	}
	values := c.values()
	if len(values) == 0 {
		return 0, 0, 0, 0, false
	}
	min, _ = stats.Min(values)
	avg, _ = stats.Mean(values)
	max, _ = stats.Max(values)
	stddev, _ = stats.StandardDeviation(values)
	return min, avg, max, stddev, true
}
