package dropin

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

type probeResult struct {
	option   PaymentOption
	accepted bool
	err      *Error
}

type prober struct {
	integrations map[PaymentOption]Integration
	log          logr.Logger
	metrics      *metrics
}

// probeAll runs every enabled candidate's probe concurrently and joins the
// results in candidate order. Probe failures never abort sibling probes.
func (p *prober) probeAll(ctx context.Context, cfg *ModelConfig, candidates []candidate) []probeResult {
	results := make([]probeResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		results[i].option = c.option
		if !c.enabled {
			continue
		}
		g.Go(func() error {
			accepted, err := p.callProbe(gctx, cfg, c.option)
			results[i].accepted = accepted
			results[i].err = err
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		switch {
		case r.err != nil:
			p.log.Error(r.err, "payment option probe failed", "option", r.option)
			p.metrics.probeOutcome(r.option, "failed")
		case r.accepted:
			p.metrics.probeOutcome(r.option, "accepted")
		default:
			p.log.V(1).Info("payment option not enabled", "option", r.option)
			p.metrics.probeOutcome(r.option, "rejected")
		}
	}
	return results
}

// callProbe is the boundary to the external probe: every failure mode comes
// back as a non-fatal ProbeFailure.
func (p *prober) callProbe(ctx context.Context, cfg *ModelConfig, option PaymentOption) (accepted bool, perr *Error) {
	integration, ok := p.integrations[option]
	if !ok || integration == nil {
		return false, NewError(ProbeFailure, "no integration registered", WithOption(option))
	}
	defer func() {
		if r := recover(); r != nil {
			accepted = false
			perr = NewError(ProbeFailure, "probe panicked", WithOption(option), WithCause(fmt.Errorf("%v", r)))
		}
	}()
	ok, err := integration.Probe(ctx, ProbeContext{
		Option:   option,
		Config:   cfg,
		Settings: cfg.OptionSettings(option),
		IsGuest:  cfg.IsGuest(),
	})
	if err != nil {
		return false, NewError(ProbeFailure, "probe returned an error", WithOption(option), WithCause(err))
	}
	return ok, nil
}
