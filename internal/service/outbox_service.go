package service

import (
	"context"
	"time"

	"GroupHub/internal/model"
	"GroupHub/internal/pkg"
	"GroupHub/internal/repository/mysql"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sender delivers one outbox event; a non-nil error marks the row for retry.
type Sender func(ctx context.Context, ob *model.MemberOutbox) error

// OutboxRelayer drains the member_outbox table and hands events to the sender.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

// MemberCountReconciler periodically re-derives each group's active member
// count and repairs drift in the cached counter.
type MemberCountReconciler struct {
	repo      *mysql.MemberCountReconcilerRepo
	batchSize int
	interval  time.Duration
	lastID    uint64
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

func NewMemberCountReconciler(db *gorm.DB) *MemberCountReconciler {
	return &MemberCountReconciler{
		repo:      &mysql.MemberCountReconcilerRepo{DB: db},
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

// Run drains the outbox on a ticker until the context ends.
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		pkg.Log.Warn("outbox query failed", zap.Error(err))
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			pkg.Log.Warn("outbox send failed", zap.Uint64("id", ob.ID), zap.Error(err))
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// KafkaSender publishes events keyed by group id so one group's events stay
// ordered on a single partition.
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.MemberOutbox) error {
		return producer.Send(ctx, pkg.MakeKeyFromID(ob.GroupID), []byte(ob.Payload))
	}
}

// LogSender 默认 sender：没配 Kafka 时只打日志
func LogSender(ctx context.Context, ob *model.MemberOutbox) error {
	pkg.Log.Info("outbox event",
		zap.String("type", ob.EventType),
		zap.Uint64("group_id", ob.GroupID),
		zap.Uint64("user_id", ob.UserID),
	)
	return nil
}

// Run reconciles on a ticker until the context ends.
func (r *MemberCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *MemberCountReconciler) reconcileOnce(ctx context.Context) {
	groups, nextID, err := r.repo.ReconcileList(ctx, r.batchSize, r.lastID)
	if err != nil {
		pkg.Log.Warn("reconcile list failed", zap.Error(err))
		return
	}
	if len(groups) == 0 {
		// 扫完一轮，从头再来
		r.lastID = 0
		return
	}
	r.lastID = nextID

	for _, g := range groups {
		real, err := r.repo.RealActiveCount(ctx, g.ID)
		if err != nil {
			continue
		}
		if real != g.MemberCount {
			pkg.Log.Info("member count drift",
				zap.Uint64("group_id", g.ID),
				zap.Int64("cached", g.MemberCount),
				zap.Int64("real", real),
			)
			_ = r.repo.FixCount(ctx, g.ID, real)
		}
	}
}
