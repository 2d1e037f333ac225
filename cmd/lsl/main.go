// Package main provides the lsl command-line entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tstenner/liblsl"
	"github.com/tstenner/liblsl/config"
	"github.com/tstenner/liblsl/internal/cancelreg"
	"github.com/tstenner/liblsl/internal/sample"
)

var (
	mode        = flag.String("mode", "resolve", "operating mode: outlet, resolve")
	streamName  = flag.String("name", "TestStream", "stream name (outlet mode)")
	streamType  = flag.String("type", "EEG", "stream type (outlet mode)")
	channels    = flag.Int("channels", 8, "channel count (outlet mode)")
	rate        = flag.Float64("rate", 100, "nominal sampling rate in Hz, 0 for irregular (outlet mode)")
	query       = flag.String("query", "", "resolver query, e.g. \"type='EEG'\" (resolve mode)")
	timeout     = flag.Duration("timeout", 5*time.Second, "resolve timeout (resolve mode)")
	minimum     = flag.Int("minimum", 0, "minimum number of results before returning early (resolve mode)")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lsl:", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(lsl.VersionInfo())
		return nil
	}

	switch *mode {
	case "outlet":
		return runOutlet()
	case "resolve":
		return runResolve()
	default:
		return fmt.Errorf("unknown -mode %q (want outlet or resolve)", *mode)
	}
}

func runOutlet() error {
	info, err := lsl.NewStreamInfo(*streamName, *streamType, *channels, *rate, lsl.FormatFloat32, *streamName+"-source")
	if err != nil {
		return fmt.Errorf("build stream info: %w", err)
	}

	reg := cancelreg.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := lsl.NewOutlet(ctx, info, reg)
	if err != nil {
		return fmt.Errorf("start outlet: %w", err)
	}
	defer out.Close()

	fmt.Printf("outlet %q (%s) publishing uid=%s v4_port=%d v6_port=%d\n",
		info.Name, info.Type, info.UID, info.V4DataPort, info.V6DataPort)

	period := time.Second
	if *rate > 0 {
		period = time.Duration(float64(time.Second) / *rate)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	// Recycle value buffers through a small generation-delayed ring
	// rather than Putting one back the tick it was pushed: the queue
	// fans the same slice out to every consumer cursor without
	// copying, so a buffer can't be reused until every cursor has had
	// a chance to drain it. recycleDepth ticks of grace is plenty for
	// a local demo generator.
	const recycleDepth = 4
	pool := sample.NewFloat32Pool(*channels)
	pending := make([][]float32, 0, recycleDepth)

	var n int
	for {
		select {
		case <-ticker.C:
			if len(pending) == recycleDepth {
				pool.Put(pending[0])
				pending = pending[1:]
			}
			values := pool.Get()
			for i := range values {
				values[i] = float32(math.Sin(float64(n) * 0.1))
			}
			pending = append(pending, values)
			if err := out.PushSample(lsl.Sample{Timestamp: float64(time.Now().UnixNano()) / 1e9, Values: values}); err != nil {
				return err
			}
			n++
		case <-signals:
			fmt.Println("\nshutting down outlet")
			return nil
		}
	}
}

func runResolve() error {
	if *query == "" {
		return fmt.Errorf("-query is required in resolve mode")
	}

	reg := cancelreg.New()
	r := lsl.NewResolver(config.DefaultApiConfig(), reg)

	results, err := r.Resolve(nil, *query, *minimum, *timeout, 0)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matching streams found")
		return nil
	}
	for _, info := range results {
		fmt.Printf("%s (%s) uid=%s channels=%d rate=%.1f host=%s\n",
			info.Name, info.Type, info.UID, info.ChannelCount, info.NominalRate, info.Hostname)
	}
	return nil
}
