package rpc

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Benchmark probes every URL in parallel. The result keeps the input order.
func Benchmark(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			out[i], _ = HealthCheck(ctx, u, 0)
		}(i, u)
	}
	wg.Wait()

	best := lo.MaxBy(out, func(a, b Endpoint) bool { return a.BlockNumber > b.BlockNumber }).BlockNumber
	for i := range out {
		if out[i].Healthy && best > out[i].BlockNumber && best-out[i].BlockNumber > staleBlockThreshold {
			out[i].Healthy = false
		}
	}
	return out
}

// Best returns the URL the deployment should use. A single URL is returned
// without probing.
func Best(ctx context.Context, urls []string, algo Algorithm, log *zap.Logger) (string, error) {
	urls = lo.Uniq(lo.Compact(urls))
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	endpoints := Benchmark(ctx, urls)
	winner, err := NewPicker(algo).Pick(endpoints)
	if err != nil {
		return "", err
	}
	if log != nil {
		log.Debug("rpc selected",
			zap.String("url", winner.URL),
			zap.Duration("latency", winner.Latency),
			zap.Uint64("block", winner.BlockNumber),
			zap.String("algorithm", string(algo)))
	}
	return winner.URL, nil
}
