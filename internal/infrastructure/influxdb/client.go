package influxdb

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gardencore/internal/infrastructure/config"
)

// Default measurement names.
const (
	DefaultReadingMeasurement = "sensor_reading"
	DefaultStatusMeasurement  = "esp_status"
)

// ServiceTag is the value of the service tag on every mirrored point.
const ServiceTag = "gardencore"

const (
	connectTimeout       = 10 * time.Second
	pingTimeout          = 5 * time.Second
	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client mirrors sensor readings and board status into one InfluxDB bucket.
//
// Points are batched by the library's non-blocking write API, so the
// write methods return nothing. Points refused locally and batches the
// server rejects are passed to the SetOnError callback.
type Client struct {
	client influxdb2.Client
	writes api.WriteAPI

	reading string
	status  string

	// mu guards closed; writers hold the read lock so Close never races
	// a point into a closed write API.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	onError atomic.Pointer[func(error)]
}

// Connect opens the mirror and pings the server once.
//
// Every point carries service=gardencore plus cfg.Tags as default tags.
//
// Returns:
//   - *Client: Mirror ready for writes
//   - error: ErrDisabled, ErrMisconfigured or ErrUnreachable
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: url %q org %q bucket %q", ErrMisconfigured, cfg.URL, cfg.Org, cfg.Bucket)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flush := time.Duration(cfg.FlushInterval) * time.Second
	if flush <= 0 {
		flush = defaultFlushInterval
	}

	// #nosec G115 -- both values are positive
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(flush.Milliseconds())).
		AddDefaultTag("service", ServiceTag)
	for k, v := range cfg.Tags {
		opts.AddDefaultTag(k, v)
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}

	c := &Client{
		client:  client,
		writes:  client.WriteAPI(cfg.Org, cfg.Bucket),
		reading: orDefault(cfg.ReadingMeasurement, DefaultReadingMeasurement),
		status:  orDefault(cfg.StatusMeasurement, DefaultStatusMeasurement),
	}
	go c.forwardErrors(c.writes.Errors())

	return c, nil
}

// WriteReading mirrors one sensor value as <reading>,mac=..,kind=.. value=v.
//
// An empty mac or kind, or a NaN or infinite value, is dropped and
// reported as ErrInvalidPoint.
func (c *Client) WriteReading(mac, kind string, value float64, at time.Time) {
	if mac == "" || kind == "" || math.IsNaN(value) || math.IsInf(value, 0) {
		c.drop(fmt.Errorf("%w: reading mac %q kind %q value %v", ErrInvalidPoint, mac, kind, value))
		return
	}
	c.write(write.NewPointWithMeasurement(c.reading).
		AddTag("mac", mac).
		AddTag("kind", kind).
		AddField("value", value).
		SetTime(at))
}

// WriteESPStatus mirrors a board's online flag as online=1i or online=0i.
func (c *Client) WriteESPStatus(mac string, online bool) {
	if mac == "" {
		c.drop(fmt.Errorf("%w: status without mac", ErrInvalidPoint))
		return
	}
	v := 0
	if online {
		v = 1
	}
	c.write(write.NewPointWithMeasurement(c.status).
		AddTag("mac", mac).
		AddField("online", v).
		SetTime(time.Now()))
}

func (c *Client) write(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}
	c.writes.WritePoint(p)
}

func (c *Client) drop(err error) {
	c.dropped.Add(1)
	c.report(err)
}

func (c *Client) report(err error) {
	if fn := c.onError.Load(); fn != nil {
		(*fn)(err)
	}
}

// forwardErrors runs until the write API closes its error channel.
func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.report(fmt.Errorf("%w: %w", ErrWriteRejected, err))
	}
}

// SetOnError sets the callback for dropped points and rejected batches.
// It runs on the library's goroutine for rejected batches.
func (c *Client) SetOnError(fn func(err error)) {
	c.onError.Store(&fn)
}

// Dropped returns how many points were refused as invalid or written
// after Close.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Flush blocks until every batched point has been sent. It is a no-op
// after Close.
func (c *Client) Flush() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	c.writes.Flush()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ping(ctx, c.client)
}

// Close flushes pending points and closes the client. Later writes are
// counted as dropped. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writes.Flush()
	c.client.Close()
	return nil
}

func ping(ctx context.Context, client influxdb2.Client) error {
	healthy, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if !healthy {
		return fmt.Errorf("%w: ping not ok", ErrUnreachable)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
