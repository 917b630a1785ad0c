package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.chordring.dev/chordring/chord"
	"go.chordring.dev/chordring/transport/httprpc"
	"go.chordring.dev/chordring/util"

	"go.uber.org/zap"
)

var (
	listen            = flag.String("listen", "127.0.0.1:7946", "address to listen for peer RPC on, also used to derive this node's ring id")
	bootstrap         = flag.String("bootstrap", "", "address of an existing ring member to join through; leave empty to found a new ring")
	hashBits          = flag.Uint("hash-bits", chord.DefaultHashBits, "bit width of the ring's id space")
	successorListSize = flag.Int("successor-list-size", chord.DefaultSuccessorListSize, "number of successors tracked for failover")
	stabilizeEvery    = flag.Duration("stabilize-interval", time.Second, "stabilization tick period")
	fixFingerEvery    = flag.Duration("fix-finger-interval", 3*time.Second, "finger-table refresh period")
	checkPredEvery    = flag.Duration("predecessor-check-interval", 5*time.Second, "predecessor liveness check period")
	joinTimeout       = flag.Duration("join-timeout", 10*time.Second, "how long to wait for the bootstrap node during join")
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	self := util.Must(chord.NewDescriptor(*listen, *hashBits, chord.DefaultHash))

	oracle := httprpc.NewLivenessOracle(logger)
	tr := httprpc.NewHTTPTransport(logger, *listen, oracle)

	node, err := chord.NewNode(chord.Config{
		Logger:                   logger,
		Self:                     self,
		HashBits:                 *hashBits,
		SuccessorListSize:        *successorListSize,
		StabilizeInterval:        *stabilizeEvery,
		FixFingerInterval:        *fixFingerEvery,
		PredecessorCheckInterval: *checkPredEvery,
		Dial:                     tr.Dial,
		Liveness:                 oracle,
		OnJoined: func() {
			logger.Info("adopted a predecessor for the first time", zap.Uint64("id", self.ID))
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := tr.Serve(node); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer tr.Close()

	if *bootstrap == "" {
		err = node.Create()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), *joinTimeout)
		err = node.Join(ctx, *bootstrap)
		cancel()
	}
	if err != nil {
		logger.Fatal("starting node", zap.Error(err))
	}

	logger.Info("chord node started", zap.Uint64("id", node.ID()), zap.String("listen", *listen))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	node.Leave(leaveCtx)
	leaveCancel()
}
