package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "fishfarm",
		Insecure:          true,
	})
	assert.Equal(t, Config{Enabled: true, CollectorEndpoint: "otel:4317", SamplingRatio: 0.25, ServiceName: "fishfarm", Insecure: true}, cfg)
}

func TestDisabledProvidersAreNoops(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{}, log)
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Same(t, log, Bridge(log, "fishfarm", lp, zapcore.InfoLevel))

	p, err := NewProfiler(ProfilerConfig{}, log)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "fishfarm"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func TestMeterProvider_CounterAndHistogram(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	defer mp.Shutdown(ctx)

	meter := mp.Meter("test")
	counter, err := NewCounter(meter, "requests", "requests served", "{request}")
	require.NoError(t, err)
	hist, err := NewHistogram(meter, HistogramOpts{Name: "latency", Unit: "s", Boundaries: HTTPDurationBuckets})
	require.NoError(t, err)

	counter.Inc(ctx, AttrHTTPRoute.String("/api/v1/transfers"))
	counter.Inc(ctx, AttrHTTPRoute.String("/api/v1/transfers"))
	hist.RecordDuration(ctx, 30*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	found := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		found[m.Name] = m
	}
	sum, ok := found["requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.EqualValues(t, 2, sum.DataPoints[0].Value)
	h, ok := found["latency"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.EqualValues(t, 1, h.DataPoints[0].Count)
}

type recordingProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }

func (p *recordingProcessor) Shutdown(context.Context) error   { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

var _ sdklog.Processor = (*recordingProcessor)(nil)

func (p *recordingProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.records))
	for i, r := range p.records {
		out[i] = r.Body().AsString()
	}
	return out
}

func TestBridge_TeesAtOrAboveLevel(t *testing.T) {
	processor := &recordingProcessor{}
	lp := NewLoggerProviderWithProcessor(processor, zap.NewNop())
	defer lp.Shutdown(context.Background())

	core, local := observer.New(zapcore.DebugLevel)
	log := Bridge(zap.New(core), "fishfarm", lp, zapcore.WarnLevel)

	log.Info("stock counted")
	log.Warn("capacity nearly reached")

	assert.Equal(t, 2, local.Len(), "local core sees everything")
	assert.Equal(t, []string{"capacity nearly reached"}, processor.bodies())
}

func setupTracedDB(t *testing.T) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, recorder
}

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestDBTracingPlugin(t *testing.T) {
	t.Run("disabled installs nothing", func(t *testing.T) {
		db, recorder := setupTracedDB(t)
		require.NoError(t, NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop()).Register(db))
		require.NoError(t, db.AutoMigrate(&tracedRow{}))
		require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("enabled records statement spans", func(t *testing.T) {
		db, recorder := setupTracedDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
		require.NoError(t, db.AutoMigrate(&tracedRow{}))

		require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "tank-a"}).Error)
		var out []tracedRow
		require.NoError(t, db.WithContext(context.Background()).Find(&out).Error)

		assert.NotEmpty(t, recorder.Ended())
	})
}
