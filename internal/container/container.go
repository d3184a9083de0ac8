package container

import (
	"context"

	"github.com/marketingax/pdf-generator-service/internal/compression"
	"github.com/marketingax/pdf-generator-service/internal/concurrency"
	"github.com/marketingax/pdf-generator-service/internal/config"
	"github.com/marketingax/pdf-generator-service/internal/generator"
	"github.com/marketingax/pdf-generator-service/internal/retention"
	"github.com/marketingax/pdf-generator-service/internal/server"
	"github.com/marketingax/pdf-generator-service/internal/storage"
)

// Container holds all dependencies for the application.
type Container struct {
	cfg        *config.Config
	store      *storage.Store
	compressor *compression.Compressor
	generator  *generator.Generator
	pool       *concurrency.Pool
	sweeper    *retention.Sweeper
	server     *server.Server
}

// New creates the dependency container and wires all services together.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	c := &Container{
		cfg:        cfg,
		store:      store,
		compressor: compression.NewCompressor(cfg.Logger),
		generator:  generator.New(cfg.Logger),
	}

	c.pool = concurrency.NewPool(ctx, c.processJob, cfg.Logger)
	c.sweeper = retention.NewSweeper(cfg.UploadDir, cfg.MaxFileAge, cfg.CleanupInterval, store, cfg.Logger)
	c.server = server.New(cfg, c.generator, c.pool, store)

	return c, nil
}

// processJob runs one compression job on a pool worker.
func (c *Container) processJob(job concurrency.Job, workerID int) (compression.Result, error) {
	c.cfg.Logger.Debug("processing compression job",
		"job_id", job.ID, "worker_id", workerID)
	return c.compressor.CompressWithResult(job.InputPath, job.Level)
}

// Start launches the background services.
func (c *Container) Start(ctx context.Context) {
	c.pool.Start()
	c.sweeper.Start(ctx)
}

// Stop shuts the background services down in reverse order.
func (c *Container) Stop() {
	c.sweeper.Stop()
	c.pool.Stop()
}

// Server returns the HTTP transport.
func (c *Container) Server() *server.Server {
	return c.server
}

// Store returns the file record store.
func (c *Container) Store() *storage.Store {
	return c.store
}
