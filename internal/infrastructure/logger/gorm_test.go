package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func stockSQL() (string, int64) {
	return `SELECT r.id FROM sorting_results AS r WHERE r.size_class = 3`, 2
}

func TestGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false))
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	warn := gl.LogMode(gormlogger.Warn).(*GormLogger)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel, "LogMode copies")
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		begin   time.Time
		err     error
		opts    []GormLoggerOption
		message string
		logged  zapcore.Level
	}{
		{name: "error", level: gormlogger.Error, err: errors.New("relation missing"), message: "SQL Error", logged: zapcore.ErrorLevel},
		{name: "timeout", level: gormlogger.Error, err: fmt.Errorf("load stock rows: %w", context.DeadlineExceeded), message: "SQL Timeout", logged: zapcore.WarnLevel},
		{name: "slow", level: gormlogger.Warn, begin: time.Now().Add(-time.Second), opts: []GormLoggerOption{WithSlowThreshold(time.Millisecond)}, message: "Slow SQL", logged: zapcore.WarnLevel},
		{name: "query", level: gormlogger.Info, message: "SQL Query", logged: zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			begin := tt.begin
			if begin.IsZero() {
				begin = time.Now()
			}
			NewGormLogger(zap.New(core), tt.level, tt.opts...).Trace(context.Background(), begin, stockSQL, tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, tt.logged, entries[0].Level)
			assert.EqualValues(t, 2, entries[0].ContextMap()["rows"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	NewGormLogger(zap.New(core), gormlogger.Error).Trace(context.Background(), time.Now(), stockSQL, gormlogger.ErrRecordNotFound)
	NewGormLogger(zap.New(core), gormlogger.Silent).Trace(context.Background(), time.Now(), stockSQL, errors.New("x"))
	NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(0)).Trace(context.Background(), time.Now().Add(-time.Hour), stockSQL, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_CarriesRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-7")

	NewGormLogger(zap.New(core), gormlogger.Info).Trace(ctx, time.Now(), stockSQL, nil)

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "req-7", recorded.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	gl.Info(context.Background(), "hidden %d", 1)
	gl.Warn(context.Background(), "migrated %s", "transfers")
	gl.Error(context.Background(), "failed %s", "x")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "migrated transfers", entries[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
