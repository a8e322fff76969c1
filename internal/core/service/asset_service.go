package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/metrics"
	"github.com/rl1809/asset-vault/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrOwnerNotFound    = errors.New("owner not found")
)

type AssetService struct {
	db           port.DatabaseRepository
	cache        port.CacheRepository
	locker       port.OwnerLocker
	converter    *Converter
	logger       *zap.Logger
	lockTTL      time.Duration
	refreshQueue chan domain.RefreshRequest
}

type Option func(*AssetService)

// WithLocker makes HandleRefresh skip owners another worker is refreshing.
func WithLocker(locker port.OwnerLocker, ttl time.Duration) Option {
	return func(s *AssetService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *AssetService) { s.logger = logger }
}

func NewAssetService(db port.DatabaseRepository, cache port.CacheRepository, converter *Converter, queueSize int, opts ...Option) *AssetService {
	s := &AssetService{
		db:           db,
		cache:        cache,
		converter:    converter,
		logger:       zap.NewNop(),
		lockTTL:      time.Minute,
		refreshQueue: make(chan domain.RefreshRequest, queueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestRefresh queues a rebuild of one owner's forest. Repeating a request
// id for the same owner fails with ErrDuplicateRequest. An empty request id
// gets a generated one.
func (s *AssetService) RequestRefresh(ctx context.Context, requestID string, ownerID int64) (domain.RefreshRequest, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	owner, err := s.db.GetOwner(ctx, ownerID)
	if err != nil {
		return domain.RefreshRequest{}, fmt.Errorf("owner lookup failed: %w", err)
	}
	if owner == nil {
		return domain.RefreshRequest{}, ErrOwnerNotFound
	}

	idempotencyKey := fmt.Sprintf("refresh:%d:%s", ownerID, requestID)
	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return domain.RefreshRequest{}, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		metrics.RefreshRequests.WithLabelValues("duplicate").Inc()
		return domain.RefreshRequest{}, ErrDuplicateRequest
	}

	req := domain.RefreshRequest{
		ID:        requestID,
		OwnerID:   ownerID,
		Status:    domain.RefreshStatusPending,
		CreatedAt: time.Now(),
	}

	select {
	case s.refreshQueue <- req:
	case <-ctx.Done():
		if err := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), idempotencyKey); err != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", idempotencyKey), zap.Error(err))
		}
		metrics.RefreshRequests.WithLabelValues("abandoned").Inc()
		return domain.RefreshRequest{}, ctx.Err()
	}
	metrics.RefreshRequests.WithLabelValues("queued").Inc()
	metrics.RefreshQueueDepth.Set(float64(len(s.refreshQueue)))
	return req, nil
}

// HandleRefresh runs one queued request. An owner already locked by another
// worker is skipped.
func (s *AssetService) HandleRefresh(ctx context.Context, req domain.RefreshRequest) domain.RefreshRequest {
	metrics.RefreshQueueDepth.Set(float64(len(s.refreshQueue)))
	logger := s.logger.With(zap.String("request_id", req.ID), zap.Int64("owner_id", req.OwnerID))

	if s.locker != nil {
		release, ok, err := s.locker.LockOwner(ctx, req.OwnerID, s.lockTTL)
		if err != nil {
			logger.Error("failed to lock owner", zap.Error(err))
			req.Status = domain.RefreshStatusFailed
			metrics.RefreshRequests.WithLabelValues("failed").Inc()
			return req
		}
		if !ok {
			logger.Info("owner refresh already running")
			req.Status = domain.RefreshStatusCompleted
			metrics.RefreshRequests.WithLabelValues("skipped").Inc()
			return req
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release owner lock", zap.Error(err))
			}
		}()
	}

	forest, err := s.Refresh(ctx, req.OwnerID)
	if err != nil {
		logger.Error("refresh failed", zap.Error(err))
		req.Status = domain.RefreshStatusFailed
		metrics.RefreshRequests.WithLabelValues("failed").Inc()
		return req
	}
	logger.Info("refreshed forest", zap.Int("roots", len(forest)), zap.Int("assets", forest.Len()))
	req.Status = domain.RefreshStatusCompleted
	metrics.RefreshRequests.WithLabelValues("completed").Inc()
	return req
}

// Refresh rebuilds an owner's forest from stored inventory and snapshots it.
func (s *AssetService) Refresh(ctx context.Context, ownerID int64) (domain.Forest, error) {
	owner, err := s.db.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}

	records, err := s.db.ListInventory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("inventory load failed: %w", err)
	}

	forest, err := s.build(records, owner.Context(), "inventory")
	if err != nil {
		return nil, err
	}

	stored, err := s.cache.StoreForest(ctx, ownerID, owner.InventoryVersion, forest)
	if err != nil {
		s.logger.Warn("failed to store forest snapshot", zap.Int64("owner_id", ownerID), zap.Error(err))
	} else if !stored {
		s.logger.Debug("newer forest snapshot already stored",
			zap.Int64("owner_id", ownerID), zap.Int("version", owner.InventoryVersion))
	}
	return forest, nil
}

// Forest returns the snapshot when it matches the stored inventory version and
// rebuilds otherwise.
func (s *AssetService) Forest(ctx context.Context, ownerID int64) (domain.Forest, error) {
	owner, err := s.db.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}

	forest, version, ok, err := s.cache.LoadForest(ctx, ownerID)
	switch {
	case err != nil:
		s.logger.Warn("failed to load forest snapshot", zap.Int64("owner_id", ownerID), zap.Error(err))
		metrics.SnapshotLookups.WithLabelValues("error").Inc()
	case ok && version == owner.InventoryVersion:
		metrics.SnapshotLookups.WithLabelValues("hit").Inc()
		return forest, nil
	case ok:
		metrics.SnapshotLookups.WithLabelValues("stale").Inc()
	default:
		metrics.SnapshotLookups.WithLabelValues("miss").Inc()
	}
	return s.Refresh(ctx, ownerID)
}

// ImportProfile stores every owner of a profile with its inventory and
// snapshots the rebuilt forests. It returns the number of owners stored.
func (s *AssetService) ImportProfile(ctx context.Context, profile *domain.Profile) (int, error) {
	imported := 0
	for _, owner := range profile.Owners() {
		if err := s.importOwner(ctx, owner); err != nil {
			return imported, fmt.Errorf("owner %d: %w", owner.ID, err)
		}
		imported++
	}
	return imported, nil
}

func (s *AssetService) importOwner(ctx context.Context, owner *domain.Owner) error {
	if err := s.db.UpsertOwner(ctx, owner.Context()); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	stored, err := s.db.GetOwner(ctx, owner.ID)
	if err != nil {
		return fmt.Errorf("owner lookup failed: %w", err)
	}
	if stored == nil {
		return ErrOwnerNotFound
	}

	records := owner.Assets.Records()
	version, err := s.db.SaveInventory(ctx, owner.ID, stored.InventoryVersion, records)
	if err != nil {
		return fmt.Errorf("inventory save failed: %w", err)
	}
	forest, err := s.build(records, owner.Context(), "profile")
	if err != nil {
		return err
	}
	if _, err := s.cache.StoreForest(ctx, owner.ID, version, forest); err != nil {
		s.logger.Warn("failed to store forest snapshot", zap.Int64("owner_id", owner.ID), zap.Error(err))
	}
	s.logger.Info("imported owner",
		zap.Int64("owner_id", owner.ID),
		zap.String("name", owner.Name),
		zap.Int("assets", forest.Len()),
		zap.Int("version", version))
	return nil
}

func (s *AssetService) build(records []domain.InventoryRecord, owner domain.OwnerContext, source string) (domain.Forest, error) {
	start := time.Now()
	forest, err := s.converter.Assets(records, owner)
	metrics.BuildDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BuildsTotal.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("build forest for owner %d: %w", owner.ID, err)
	}
	metrics.BuildsTotal.WithLabelValues(source, "ok").Inc()
	metrics.ForestAssets.Observe(float64(forest.Len()))
	return forest, nil
}

func (s *AssetService) RefreshQueue() <-chan domain.RefreshRequest {
	return s.refreshQueue
}

func (s *AssetService) Close() {
	close(s.refreshQueue)
}
