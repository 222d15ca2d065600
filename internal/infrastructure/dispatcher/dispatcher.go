// Package dispatcher is the orchestration core tying the resolver,
// selector, breaker, rate limiter, stickiness locks, and dialect
// adapters into the retry/failover loop every inbound request runs
// through. It runs a full candidate-pool loop with soft-skip fallback,
// deadlines, and stream pre/post-bytes retry semantics.
package dispatcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/dialect"
	"github.com/axgate/llmgw/internal/infrastructure/ratelimit"
	"github.com/axgate/llmgw/internal/infrastructure/resolver"
	"github.com/axgate/llmgw/internal/infrastructure/selector"
	"github.com/axgate/llmgw/internal/infrastructure/sticky"
	"github.com/axgate/llmgw/internal/infrastructure/telemetry"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

// ResponseSink is how the dispatcher relays a translated response back
// to the caller, implemented by the HTTP handler for the inbound
// dialect it's serving. WriteStreamFrame is called once per relayed SSE
// frame as it arrives; the dispatcher also keeps a copy of every relayed
// frame for the request's telemetry record.
type ResponseSink interface {
	WriteUnary(body []byte) error
	WriteStreamFrame(frame []byte) error
}

// Result is what Dispatch returns once the retry loop concludes.
type Result struct {
	Usage    entity.Usage
	Status   entity.ChatLogStatus
	Attempts int
}

// Dispatcher wires every per-request collaborator together. One
// instance is shared by every inbound request; all of its state is
// either immutable or itself lock-protected (health, limiter, locks,
// rotor cursors).
type Dispatcher struct {
	resolver   *resolver.Resolver
	strategies map[entity.Strategy]selector.Strategy
	health     *breaker.Store
	limiter    *ratelimit.Limiter
	locks      *sticky.Locks
	httpClient *http.Client
	sink       *telemetry.Sink
	metrics    *telemetry.Metrics
	tracer     *telemetry.Tracer
	logger     *zap.Logger
}

func New(
	res *resolver.Resolver,
	strategies map[entity.Strategy]selector.Strategy,
	health *breaker.Store,
	limiter *ratelimit.Limiter,
	locks *sticky.Locks,
	httpClient *http.Client,
	sink *telemetry.Sink,
	metrics *telemetry.Metrics,
	tracer *telemetry.Tracer,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		resolver:   res,
		strategies: strategies,
		health:     health,
		limiter:    limiter,
		locks:      locks,
		httpClient: httpClient,
		sink:       sink,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
	}
}

// attempt is the scratch state threaded through one loop iteration.
type attempt struct {
	candidate    *entity.Candidate
	startedAt    time.Time
	firstByteAt  time.Time
	bytesFlushed bool
}

// Dispatch runs the full candidate-pool retry/failover loop for one
// logical inbound request and writes exactly one telemetry record
// before returning.
func (d *Dispatcher) Dispatch(ctx context.Context, admission valueobject.AdmissionContext, req dialect.Request, body []byte, sink ResponseSink) (*Result, error) {
	requestStart := time.Now()

	model, candidates, err := d.resolver.Resolve(ctx, admission.ModelName, admission.RequiredCapabilities)
	if err != nil {
		d.finish(ctx, requestStart, admission, model, nil, 0, nil, err, body, nil)
		return nil, err
	}
	if len(candidates) == 0 {
		noUpstream := apperrors.NewNoUpstreamError("no candidate binding for model " + admission.ModelName)
		d.finish(ctx, requestStart, admission, model, nil, 0, nil, noUpstream, body, nil)
		return nil, noUpstream
	}

	if deadline, ok := model.Deadline(requestStart); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	tried := map[uint]bool{}
	softSkipped := map[uint]bool{}
	attemptCount := 0
	attemptsCap := model.AttemptsCap()

	var lastErr error
	var winning *attempt
	var finalResp *dialect.Response
	var outputFrames [][]byte

	for {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = apperrors.NewUpstreamTimeoutError("deadline exceeded or client disconnected")
			}
			break
		}

		pool := poolFrom(candidates, tried, softSkipped)
		usedFallback := false
		if len(pool) == 0 {
			pool = poolFrom(candidates, tried, nil)
			usedFallback = true
		}
		if len(pool) == 0 {
			if lastErr == nil {
				lastErr = apperrors.NewNoUpstreamError("candidate pool exhausted")
			}
			break
		}

		eligible := d.filterEligible(ctx, admission, model, pool, softSkipped)
		if len(eligible) == 0 {
			if usedFallback {
				if lastErr == nil {
					lastErr = apperrors.NewNoUpstreamError("all candidates filtered by breaker/rate-limit/ip-lock")
				}
				break
			}
			continue
		}

		chosen := d.pick(ctx, admission, model, eligible)
		if chosen == nil {
			if lastErr == nil {
				lastErr = apperrors.NewNoUpstreamError("selector returned no candidate")
			}
			break
		}
		d.locks.AcquireToken(ctx, admission.AuthKeyID, chosen.Binding.ID, 0)

		outboundDialect := chosen.Provider.Dialect()
		adapter, err := dialect.CreateAdapter(outboundDialect)
		if err != nil {
			lastErr = err
			break
		}
		outReq, err := adapter.TranslateRequest(ctx, req, admission.RequiredCapabilities, chosen.Binding, chosen.Provider.Config)
		if err != nil {
			lastErr = err
			break
		}

		att := &attempt{candidate: chosen, startedAt: time.Now()}
		tried[chosen.Binding.ID] = true
		attemptCount++

		attemptCtx := ctx
		var span oteltrace.Span
		if d.tracer != nil {
			attemptCtx, span = d.tracer.StartAttempt(ctx, admission.ModelName, chosen.Provider.Name, chosen.Binding.ID)
		}

		retry, terminal := d.doAttempt(attemptCtx, adapter, outReq, att, admission, sink, &outputFrames)

		if span != nil {
			telemetry.EndAttempt(span, terminal != nil && terminal.ok, retry)
		}

		if terminal != nil && terminal.ok {
			lastErr = nil
			winning = att
			finalResp = terminal.resp
			break
		}
		if terminal != nil {
			lastErr = terminal.err
			break
		}

		lastErr = retry
		if attemptCount >= attemptsCap {
			break
		}
	}

	status := entity.ChatLogSuccess
	if lastErr != nil {
		status = entity.ChatLogError
	}

	result := &Result{Status: status, Attempts: attemptCount}
	if finalResp != nil {
		result.Usage = finalResp.Usage
	}

	d.finish(ctx, requestStart, admission, model, winning, attemptCount, finalResp, lastErr, body, outputFrames)
	if lastErr != nil {
		return result, lastErr
	}
	return result, nil
}

type terminalOutcome struct {
	ok   bool
	resp *dialect.Response
	err  error
}

// doAttempt performs the actual upstream HTTP call for one candidate
// and relays the response. It returns (retryErr, nil) when the loop
// should try another candidate, or (nil, terminal) when the loop is
// done — either because the attempt succeeded or because it failed in
// a way that must stop the loop (a 4xx from upstream, for instance).
func (d *Dispatcher) doAttempt(ctx context.Context, adapter dialect.Adapter, outReq *dialect.OutboundRequest, att *attempt, admission valueobject.AdmissionContext, sink ResponseSink, outputFrames *[][]byte) (retryErr error, terminal *terminalOutcome) {
	method := http.MethodPost
	httpReq, err := http.NewRequestWithContext(ctx, method, outReq.URL, bytes.NewReader(outReq.Body))
	if err != nil {
		d.recordOutcome(att, false, err.Error())
		return apperrors.NewStreamBrokenPreError(err), nil
	}
	httpReq.Header = outReq.Headers

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.recordOutcome(att, false, err.Error())
		return apperrors.NewStreamBrokenPreError(err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		upstreamBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		d.recordOutcome(att, false, string(upstreamBody))
		return apperrors.NewUpstreamError(resp.StatusCode, string(upstreamBody)), nil
	}
	if resp.StatusCode >= 400 {
		upstreamBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		d.recordOutcome(att, false, string(upstreamBody))
		return nil, &terminalOutcome{ok: false, err: apperrors.NewUpstreamError(resp.StatusCode, string(upstreamBody))}
	}

	if outReq.IsStream {
		return d.relayStream(ctx, adapter, resp.Body, att, admission, sink, outputFrames)
	}
	return d.relayUnary(adapter, resp, att, admission, sink, outputFrames)
}

func (d *Dispatcher) relayUnary(adapter dialect.Adapter, resp *http.Response, att *attempt, admission valueobject.AdmissionContext, sink ResponseSink, outputFrames *[][]byte) (error, *terminalOutcome) {
	upstreamBody, err := io.ReadAll(resp.Body)
	if err != nil {
		d.recordOutcome(att, false, err.Error())
		return apperrors.NewStreamBrokenPreError(err), nil
	}

	canonical, err := adapter.TranslateResponseUnary(upstreamBody, resp.StatusCode)
	if err != nil {
		// an invalid upstream body is retryable, same as a transport error.
		d.recordOutcome(att, false, err.Error())
		return err, nil
	}

	rendered, err := dialect.RenderInboundResponse(admission.Dialect, canonical)
	if err != nil {
		d.recordOutcome(att, false, err.Error())
		return nil, &terminalOutcome{ok: false, err: err}
	}

	if err := sink.WriteUnary(rendered); err != nil {
		d.recordOutcome(att, false, err.Error())
		return nil, &terminalOutcome{ok: false, err: apperrors.NewStreamBrokenPostError(err)}
	}
	att.bytesFlushed = true
	*outputFrames = append(*outputFrames, rendered)

	d.recordOutcome(att, true, "")
	return nil, &terminalOutcome{ok: true, resp: canonical}
}

func (d *Dispatcher) relayStream(ctx context.Context, adapter dialect.Adapter, body io.Reader, att *attempt, admission valueobject.AdmissionContext, sink ResponseSink, outputFrames *[][]byte) (error, *terminalOutcome) {
	var streamWriteErr error

	canonical, err := adapter.TranslateStream(ctx, body, func(ev dialect.StreamEvent) {
		if streamWriteErr != nil {
			return
		}
		if att.firstByteAt.IsZero() {
			att.firstByteAt = time.Now()
		}
		frame, rerr := dialect.RenderInboundStreamEvent(admission.Dialect, ev)
		if rerr != nil {
			streamWriteErr = rerr
			return
		}
		if werr := sink.WriteStreamFrame(frame); werr != nil {
			streamWriteErr = werr
			return
		}
		att.bytesFlushed = true
		*outputFrames = append(*outputFrames, frame)
	})

	if streamWriteErr != nil {
		d.recordOutcome(att, false, streamWriteErr.Error())
		return nil, &terminalOutcome{ok: false, err: apperrors.NewStreamBrokenPostError(streamWriteErr)}
	}

	if err != nil {
		if !att.bytesFlushed {
			d.recordOutcome(att, false, err.Error())
			return apperrors.NewStreamBrokenPreError(err), nil
		}
		d.recordOutcome(att, false, err.Error())
		return nil, &terminalOutcome{ok: false, err: apperrors.NewStreamBrokenPostError(err)}
	}

	d.recordOutcome(att, true, "")
	return nil, &terminalOutcome{ok: true, resp: canonical}
}

func (d *Dispatcher) recordOutcome(att *attempt, success bool, errMsg string) {
	latencyMs := time.Since(att.startedAt).Milliseconds()
	d.health.RecordOutcome(att.candidate.Binding.ID, success, latencyMs, errMsg)
	if d.metrics != nil {
		outcome := "success"
		if !success {
			outcome = "failure"
		}
		d.metrics.ObserveAttempt(att.candidate.Provider.Name, outcome)
	}
}

// pick prefers a candidate the caller's auth key already holds a
// token-binding lease on, falling back to the model's configured
// selector strategy.
func (d *Dispatcher) pick(ctx context.Context, admission valueobject.AdmissionContext, model *entity.Model, eligible []*entity.Candidate) *entity.Candidate {
	for _, c := range eligible {
		if d.locks.Peek(ctx, admission.AuthKeyID, c.Binding.ID) {
			return c
		}
	}
	strategy := d.strategies[model.Strategy]
	if strategy == nil {
		strategy = d.strategies[entity.StrategyLottery]
	}
	if strategy == nil {
		return eligible[0]
	}
	return strategy.Pick(model.ID, eligible)
}

// filterEligible consults the breaker, rate limiter, and provider
// IP-lock for each pooled candidate, adding the ones it rejects to
// softSkipped so a later fallback pass can still offer them.
func (d *Dispatcher) filterEligible(ctx context.Context, admission valueobject.AdmissionContext, model *entity.Model, pool []*entity.Candidate, softSkipped map[uint]bool) []*entity.Candidate {
	eligible := make([]*entity.Candidate, 0, len(pool))
	for _, c := range pool {
		if model.Breaker {
			stats := d.health.Snapshot(c.Binding.ID, true)
			if stats.BreakerOpen {
				softSkipped[c.Binding.ID] = true
				if d.metrics != nil {
					d.metrics.SetBreakerOpen(bindingLabel(c.Binding.ID), true)
				}
				continue
			}
			if d.metrics != nil {
				d.metrics.SetBreakerOpen(bindingLabel(c.Binding.ID), false)
			}
		}
		if !d.limiter.TryAcquire(c.Provider.ID, c.Provider.RPMLimit) {
			softSkipped[c.Binding.ID] = true
			if d.metrics != nil {
				d.metrics.ObserveRateLimited(c.Provider.Name)
			}
			continue
		}
		if !d.locks.AcquireProviderIP(ctx, c.Provider.ID, admission.RemoteIP, c.Provider.IPLockMinutes) {
			softSkipped[c.Binding.ID] = true
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

func poolFrom(candidates []*entity.Candidate, tried, skipped map[uint]bool) []*entity.Candidate {
	out := make([]*entity.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if tried[c.Binding.ID] {
			continue
		}
		if skipped != nil && skipped[c.Binding.ID] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (d *Dispatcher) finish(ctx context.Context, start time.Time, admission valueobject.AdmissionContext, model *entity.Model, winning *attempt, attempts int, resp *dialect.Response, err error, inputBody []byte, frames [][]byte) {
	rec := telemetry.Record{
		Admission:  admission,
		ModelName:  admission.ModelName,
		Dialect:    admission.Dialect,
		RetryCount: maxInt(attempts-1, 0),
		ProxyMs:    time.Since(start).Milliseconds(),
	}

	if model != nil {
		rec.IOLog = model.IOLog
	}
	if winning != nil {
		rec.ProviderName = winning.candidate.Provider.Name
		rec.ProviderModel = winning.candidate.Binding.ProviderModel
		if !winning.firstByteAt.IsZero() {
			rec.FirstChunkMs = winning.firstByteAt.Sub(winning.startedAt).Milliseconds()
			rec.ChunkMs = time.Since(winning.firstByteAt).Milliseconds()
		} else {
			rec.ChunkMs = time.Since(winning.startedAt).Milliseconds()
		}
		rec.ProxyMs = maxInt64(time.Since(start).Milliseconds()-rec.FirstChunkMs-rec.ChunkMs, 0)
	}
	if resp != nil {
		rec.Usage = resp.Usage
	}

	if err != nil {
		rec.Status = entity.ChatLogError
		rec.Error = err.Error()
	} else {
		rec.Status = entity.ChatLogSuccess
	}

	if rec.IOLog {
		rec.InputBody = inputBody
		rec.OutputBody = bytes.Join(frames, []byte("\n"))
	}

	if d.sink != nil {
		d.sink.Record(ctx, rec)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func bindingLabel(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
