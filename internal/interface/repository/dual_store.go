package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/logger"
	"local-electrician/pkg/metrics"
)

const asyncOpTimeout = 10 * time.Second

// DualStore bridges the primary store and the legacy fallback ledger behind
// the RequestRepository interface. Precedence rules:
//
//   - writes go to the primary first; on success the ledger is mirrored
//     best-effort in the background, and a mirror failure never fails the
//     operation
//   - if the primary write fails, the row is written to the ledger alone and
//     the operation succeeds degraded; only both stores failing surfaces
//     ErrStoreUnavailable
//   - reads consult the primary first and fall back to the ledger; a ledger
//     hit on a primary miss is backfilled into the primary in the background
//   - conditional updates run against the primary only, since the ledger has
//     no atomic conditional write
type DualStore struct {
	primary repository.RequestStore
	ledger  repository.LedgerStore
	logger  logger.Logger
	metrics *metrics.Metrics

	async sync.WaitGroup
}

// NewDualStore creates a new dual-store bridge. metrics may be nil.
func NewDualStore(primary repository.RequestStore, ledger repository.LedgerStore, log logger.Logger, m *metrics.Metrics) *DualStore {
	return &DualStore{
		primary: primary,
		ledger:  ledger,
		logger:  log,
		metrics: m,
	}
}

// Flush waits for in-flight mirror and backfill work, for shutdown and tests.
func (d *DualStore) Flush() {
	d.async.Wait()
}

// Create persists a new request, primary first.
func (d *DualStore) Create(ctx context.Context, req *entity.ServiceRequest) error {
	if err := d.primary.Insert(ctx, req); err != nil {
		d.logger.Warn("Primary store insert failed, writing ledger only",
			"requestId", req.RequestID, "error", err)
		d.countFallback("create")
		if lerr := d.ledger.Upsert(ctx, req); lerr != nil {
			d.countError("create")
			return fmt.Errorf("%w: primary: %v, ledger: %v", entity.ErrStoreUnavailable, err, lerr)
		}
		return nil
	}

	d.mirrorAsync(req)
	return nil
}

// FindByID reads primary-first and falls back to the ledger on a miss or a
// primary failure. A ledger hit is backfilled into the primary.
func (d *DualStore) FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	req, perr := d.primary.FindByID(ctx, requestID)
	if perr == nil && req != nil {
		return req, nil
	}
	if perr != nil {
		d.logger.Warn("Primary store read failed, consulting ledger",
			"requestId", requestID, "error", perr)
	}

	lreq, lerr := d.ledger.FindByID(ctx, requestID)
	if lerr != nil {
		if perr != nil {
			return nil, fmt.Errorf("%w: primary: %v, ledger: %v", entity.ErrStoreUnavailable, perr, lerr)
		}
		// Primary answered cleanly with a miss; a ledger error does not make
		// the lookup a failure.
		d.logger.Warn("Ledger read failed on primary miss", "requestId", requestID, "error", lerr)
		return nil, nil
	}
	if lreq == nil {
		return nil, nil
	}

	d.countFallback("findById")
	d.backfillAsync(lreq)
	return lreq, nil
}

// FindActiveByCustomer returns the customer's non-terminal request.
func (d *DualStore) FindActiveByCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error) {
	req, err := d.primary.FindActiveByCustomer(ctx, customerRef)
	if err == nil {
		return req, nil
	}
	d.logger.Warn("Primary store customer read failed, scanning ledger",
		"customerRef", customerRef, "error", err)
	d.countFallback("findActiveByCustomer")

	all, lerr := d.ledger.All(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("%w: primary: %v, ledger: %v", entity.ErrStoreUnavailable, err, lerr)
	}

	var newest *entity.ServiceRequest
	for _, r := range all {
		if r.CustomerRef != customerRef || r.Status.IsTerminal() {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	return newest, nil
}

// FindByElectrician returns every request assigned to the electrician.
func (d *DualStore) FindByElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error) {
	reqs, err := d.primary.FindByElectrician(ctx, electricianID)
	if err == nil {
		return reqs, nil
	}
	d.logger.Warn("Primary store electrician read failed, scanning ledger",
		"electricianId", electricianID, "error", err)
	d.countFallback("findByElectrician")

	all, lerr := d.ledger.All(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("%w: primary: %v, ledger: %v", entity.ErrStoreUnavailable, err, lerr)
	}

	var out []*entity.ServiceRequest
	for _, r := range all {
		if r.Assignment.ElectricianID() == electricianID {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindOpenBroadcast returns broadcast requests still in NEW.
func (d *DualStore) FindOpenBroadcast(ctx context.Context) ([]*entity.ServiceRequest, error) {
	reqs, err := d.primary.FindOpenBroadcast(ctx)
	if err == nil {
		return reqs, nil
	}
	d.logger.Warn("Primary store broadcast read failed, scanning ledger", "error", err)
	d.countFallback("findOpenBroadcast")

	all, lerr := d.ledger.All(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("%w: primary: %v, ledger: %v", entity.ErrStoreUnavailable, err, lerr)
	}

	var out []*entity.ServiceRequest
	for _, r := range all {
		if r.Assignment.IsBroadcast() && r.Status == entity.StatusNew {
			out = append(out, r)
		}
	}
	return out, nil
}

// ApplyTransition issues the conditional update against the primary store
// only; the ledger is not a participant in the concurrency-control path. On a
// successful transition the updated row is mirrored best-effort.
func (d *DualStore) ApplyTransition(ctx context.Context, upd repository.TransitionUpdate) (bool, error) {
	changed, err := d.primary.ApplyTransition(ctx, upd)
	if err != nil {
		d.countError("applyTransition")
		return false, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	if changed {
		d.mirrorCurrentAsync(upd.RequestID)
	}
	return changed, nil
}

// SetRatingOnce records a rating through the primary store only.
func (d *DualStore) SetRatingOnce(ctx context.Context, requestID string, rating int, comment string, now time.Time) (bool, error) {
	changed, err := d.primary.SetRatingOnce(ctx, requestID, rating, comment, now)
	if err != nil {
		d.countError("setRating")
		return false, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	if changed {
		d.mirrorCurrentAsync(requestID)
	}
	return changed, nil
}

// AppendLog appends to the audit trail in the primary store. During degraded
// operation the append is logged and suppressed; the request row remains the
// source of truth for current state.
func (d *DualStore) AppendLog(ctx context.Context, e *entity.StatusLogEntry) error {
	if err := d.primary.AppendLog(ctx, e); err != nil {
		d.logger.Error("Failed to append status log",
			"requestId", e.RequestID, "status", e.Status, "error", err)
	}
	return nil
}

// LogsForRequest returns the transition trail from the primary store.
func (d *DualStore) LogsForRequest(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error) {
	entries, err := d.primary.LogsForRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// RunBackfill periodically copies ledger rows absent from the primary store
// into it, so rows written during a primary outage become authoritative again.
// Blocks until ctx is cancelled; run it in a goroutine.
func (d *DualStore) RunBackfill(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Backfill loop stopped")
			return
		case <-ticker.C:
			d.BackfillOnce(ctx)
		}
	}
}

// BackfillOnce runs a single backfill sweep.
func (d *DualStore) BackfillOnce(ctx context.Context) {
	rows, err := d.ledger.All(ctx)
	if err != nil {
		d.logger.Warn("Backfill sweep: ledger scan failed", "error", err)
		return
	}

	copied := 0
	for _, row := range rows {
		existing, err := d.primary.FindByID(ctx, row.RequestID)
		if err != nil {
			d.logger.Warn("Backfill sweep: primary read failed", "requestId", row.RequestID, "error", err)
			return
		}
		if existing != nil {
			continue
		}
		if err := d.primary.Upsert(ctx, row); err != nil {
			d.logger.Warn("Backfill sweep: primary upsert failed", "requestId", row.RequestID, "error", err)
			continue
		}
		copied++
		if d.metrics != nil {
			d.metrics.BackfillCopied.Inc()
		}
	}
	if copied > 0 {
		d.logger.Info("Backfill sweep copied ledger rows", "count", copied)
	}
}

// mirrorAsync mirrors a known row to the ledger in the background.
func (d *DualStore) mirrorAsync(req *entity.ServiceRequest) {
	row := *req
	d.async.Add(1)
	go func() {
		defer d.async.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncOpTimeout)
		defer cancel()
		if err := d.ledger.Upsert(ctx, &row); err != nil {
			d.logger.Warn("Ledger mirror failed", "requestId", row.RequestID, "error", err)
		}
	}()
}

// mirrorCurrentAsync re-reads the row from the primary and mirrors the result,
// so the ledger copy reflects the committed conditional write.
func (d *DualStore) mirrorCurrentAsync(requestID string) {
	d.async.Add(1)
	go func() {
		defer d.async.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncOpTimeout)
		defer cancel()
		req, err := d.primary.FindByID(ctx, requestID)
		if err != nil || req == nil {
			d.logger.Warn("Ledger mirror re-read failed", "requestId", requestID, "error", err)
			return
		}
		if err := d.ledger.Upsert(ctx, req); err != nil {
			d.logger.Warn("Ledger mirror failed", "requestId", requestID, "error", err)
		}
	}()
}

// backfillAsync copies a ledger row into the primary after a read-miss so the
// next read is fast and authoritative.
func (d *DualStore) backfillAsync(req *entity.ServiceRequest) {
	row := *req
	d.async.Add(1)
	go func() {
		defer d.async.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncOpTimeout)
		defer cancel()
		if err := d.primary.Upsert(ctx, &row); err != nil {
			d.logger.Warn("Read-miss backfill failed", "requestId", row.RequestID, "error", err)
			return
		}
		if d.metrics != nil {
			d.metrics.BackfillCopied.Inc()
		}
	}()
}

func (d *DualStore) countFallback(operation string) {
	if d.metrics != nil {
		d.metrics.StoreFallbacks.WithLabelValues(operation).Inc()
	}
}

func (d *DualStore) countError(operation string) {
	if d.metrics != nil {
		d.metrics.ErrorsCount.WithLabelValues(operation).Inc()
	}
}
