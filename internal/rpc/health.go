package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
)

// probeTimeout bounds a single endpoint probe.
const probeTimeout = 5 * time.Second

// HealthCheck probes one RPC URL. The endpoint is healthy when it answers
// within probeTimeout and, if bestBlock is non-zero, is no more than
// staleBlockThreshold blocks behind it.
func HealthCheck(ctx context.Context, url string, bestBlock uint64) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	latency, block, err := chain.NewEVMClient(url).Ping(ctx)
	ep := Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: block,
		Healthy:     err == nil,
		Checked:     true,
	}
	if err == nil && bestBlock > block && bestBlock-block > staleBlockThreshold {
		ep.Healthy = false
	}
	return ep, err
}
