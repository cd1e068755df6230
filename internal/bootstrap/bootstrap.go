// Package bootstrap assembles the procurement engine from configuration. Both the HTTP
// server and the CLI start from Build.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"procurement/internal/ai"
	"procurement/internal/app"
	"procurement/internal/cache"
	"procurement/internal/config"
	"procurement/internal/core"
	"procurement/internal/db"
	"procurement/internal/events"
	"procurement/internal/lock"
	"procurement/internal/store"
)

// Runtime is a wired ApplicationService plus the connections it holds.
type Runtime struct {
	App app.ApplicationService

	pool *pgxpool.Pool
	rdb  *redis.Client
}

// Close releases database and Redis connections.
func (r *Runtime) Close() {
	if r.rdb != nil {
		_ = r.rdb.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

// Build connects to the configured backends and wires every service.
//
// Without Redis, locks are process-local, reports are not cached and events are only
// logged; a single process is then the only safe deployment.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}

	var st core.Store
	switch cfg.Store.Driver {
	case "memory":
		mem := store.NewMemory()
		seedDemo(mem)
		log.Warn("using in-memory store; data is lost on exit")
		st = mem
	default:
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.pool = pool
		st = store.NewPostgres(pool, cfg.Database.LockTimeout)
	}

	rdb, err := db.NewRedis(ctx, cfg.Redis)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	rt.rdb = rdb

	var (
		locker    core.Locker
		publisher core.EventPublisher
		reports   core.ReportCache
	)
	if rdb != nil {
		locker = lock.NewRedis(rdb, cfg.Lock.TTL, cfg.Lock.Wait, cfg.Lock.Backoff)
		reports = cache.NewRedis(rdb, "procurement:")
		publisher = events.Fanout{events.NewRedis(rdb, cfg.Redis.Channel), events.NewLog(log)}
		log.Info("redis enabled", zap.String("addr", cfg.Redis.Addr), zap.String("channel", cfg.Redis.Channel))
	} else {
		locker = lock.NewLocal(cfg.Lock.Wait)
		publisher = events.NewLog(log)
		log.Info("redis not configured; using process-local locks")
	}

	var drafter app.RequisitionDrafter
	if cfg.OpenAI.APIKey != "" {
		drafter = ai.NewDrafter(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		log.Warn("OPENAI_API_KEY is not set; requisition assistant disabled")
	}

	rt.App = app.NewAppService(
		core.NewApprovalService(st, publisher, log.Named("approvals")),
		core.NewPurchaseOrderService(st, locker, publisher, log.Named("orders")),
		core.NewReceivingService(st, locker, publisher, log.Named("receiving")),
		core.NewReportingService(st, reports, cfg.Report.Freshness, log.Named("reports")),
		drafter,
		log,
	)
	return rt, nil
}

func seedDemo(mem *store.Memory) {
	mem.AddProject(core.Project{Code: "DEMO", Name: "Demo site"})
	mem.AddVendor(core.Vendor{Code: "V001", Name: "Demo Supplies", Category: "hardware", IsActive: true})
}
