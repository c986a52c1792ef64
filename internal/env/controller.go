package env

import (
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"time"

	// Postgres driver, used for the readiness poll and dataset clearing.
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Result carries the outcome of a best-effort environment operation.
// OK is false only when a compose command itself failed; transient
// readiness or cleanup trouble lands in Warnings instead.
type Result struct {
	OK       bool
	Warnings []string
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Config locates the deployment a Controller operates on.
type Config struct {
	BaseDir      string // docker compose project directory
	ProxyService string // compose service name of the proxy
	DBContainer  string // container name for the docker-exec fallback

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	EntityTable string // table truncated between iterations
}

// DefaultConfig returns the settings the stock docker-compose deployment
// uses.
func DefaultConfig(baseDir string) Config {
	return Config{
		BaseDir:      baseDir,
		ProxyService: "nginx",
		DBContainer:  "load_balancer_db",
		DBHost:       "localhost",
		DBPort:       5432,
		DBName:       "testdb",
		DBUser:       "testuser",
		DBPassword:   "testpass",
		EntityTable:  "todos",
	}
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable connect_timeout=2",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// Controller brings the deployment up and down around load test runs.
// All operations are best-effort: a flaky wait or a dirty dataset is
// cheaper than aborting a multi-hour search.
type Controller struct {
	cfg Config
	log *logrus.Logger

	// Seams for tests.
	runCmd        func(ctx context.Context, dir, name string, args ...string) error
	openDB        func() (*sql.DB, error)
	sleep         func(ctx context.Context, d time.Duration)
	readyAttempts int
	readyDelay    time.Duration
	startupWait   time.Duration
	settleWait    time.Duration
	restartWait   time.Duration
}

func NewController(cfg Config, log *logrus.Logger) *Controller {
	c := &Controller{
		cfg:           cfg,
		log:           log,
		readyAttempts: 30,
		readyDelay:    2 * time.Second,
		startupWait:   15 * time.Second,
		settleWait:    5 * time.Second,
		restartWait:   3 * time.Second,
		sleep:         sleepCtx,
	}
	c.runCmd = func(ctx context.Context, dir, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s %v: %w (%s)", name, args, err, out)
		}
		return nil
	}
	c.openDB = func() (*sql.DB, error) {
		return sql.Open("postgres", cfg.dsn())
	}
	return c
}

// Reset stops the whole deployment, optionally wipes its volumes,
// brings it back up, waits for the database, and clears the entity
// table. OK is false only if a compose command fails.
func (c *Controller) Reset(ctx context.Context, full bool) Result {
	res := Result{OK: true}

	c.log.Info("resetting system state")

	if err := c.compose(ctx, "down"); err != nil {
		c.log.WithError(err).Error("compose down failed")
		return Result{}
	}
	c.sleep(ctx, 2*time.Second)

	if full {
		if err := c.compose(ctx, "down", "-v"); err != nil {
			c.log.WithError(err).Error("compose down -v failed")
			return Result{}
		}
		c.sleep(ctx, 2*time.Second)
	}

	if err := c.compose(ctx, "up", "-d"); err != nil {
		c.log.WithError(err).Error("compose up failed")
		return Result{}
	}

	c.log.Info("waiting for services to start")
	c.sleep(ctx, c.startupWait)

	c.waitDBReady(ctx, &res)
	c.clearDataset(ctx, &res)

	c.sleep(ctx, c.settleWait)
	return res
}

// RestartProxy restarts only the proxy service and lets it settle.
func (c *Controller) RestartProxy(ctx context.Context) Result {
	if err := c.compose(ctx, "restart", c.cfg.ProxyService); err != nil {
		c.log.WithError(err).Error("proxy restart failed")
		return Result{}
	}
	c.sleep(ctx, c.restartWait)
	return Result{OK: true}
}

func (c *Controller) compose(ctx context.Context, args ...string) error {
	return c.runCmd(ctx, c.cfg.BaseDir, "docker", append([]string{"compose"}, args...)...)
}

// waitDBReady polls the database with a bounded retry loop. Never
// observing readiness is a warning, not a failure.
func (c *Controller) waitDBReady(ctx context.Context, res *Result) {
	db, err := c.openDB()
	if err != nil {
		res.warnf("database readiness check unavailable: %v", err)
		return
	}
	defer db.Close()

	for i := 0; i < c.readyAttempts; i++ {
		if ctx.Err() != nil {
			return
		}
		if err := db.PingContext(ctx); err == nil {
			c.log.Info("database is ready")
			return
		}
		c.sleep(ctx, c.readyDelay)
	}

	c.log.Warn("database never became ready within the poll budget")
	res.warnf("database not ready after %d attempts", c.readyAttempts)
}

// clearDataset truncates the entity table, first over a direct
// connection, then through psql inside the DB container. Both paths
// failing leaves stale rows behind; the run continues with a warning.
func (c *Controller) clearDataset(ctx context.Context, res *Result) {
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", c.cfg.EntityTable)

	if db, err := c.openDB(); err == nil {
		defer db.Close()
		_, execErr := db.ExecContext(ctx, stmt)
		if execErr == nil {
			return
		}
		c.log.WithError(execErr).Warn("direct dataset clearing failed, falling back to docker exec")
	}

	err := c.runCmd(ctx, c.cfg.BaseDir, "docker",
		"exec", "-i", c.cfg.DBContainer,
		"psql", "-U", c.cfg.DBUser, "-d", c.cfg.DBName, "-c", stmt)
	if err != nil {
		c.log.WithError(err).Warn("dataset not cleared, previous data may leak into this iteration")
		res.warnf("dataset not cleared: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
