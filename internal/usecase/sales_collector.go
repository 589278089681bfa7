package usecase

import (
	"context"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	mid "StockCast/internal/middleware"
)

// SalesCollector consumes the live point-of-sale stream and feeds
// observations through the ingest pipeline.
type SalesCollector struct {
	stream  drepo.SalesStream
	proc    *ObservationProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
}

// NewSalesCollector creates a new SalesCollector instance.
func NewSalesCollector(stream drepo.SalesStream, proc *ObservationProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *SalesCollector {
	return &SalesCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the sales stream is connected.
func (c *SalesCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SalesCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obsCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obsCh, errCh)
	return nil
}

func (c *SalesCollector) consume(ctx context.Context, obsCh <-chan *models.Observation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case o := <-obsCh:
			if o == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.proc.Process(ctx, o)
			}
		}
	}
}

func (c *SalesCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ObservationProcessor for lifecycle management.
func (c *SalesCollector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *SalesCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
