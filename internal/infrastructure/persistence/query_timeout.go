package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	queryTimeoutPluginName = "fishfarm:query_timeout"
	queryCancelKey         = "fishfarm:query_cancel"
)

// QueryTimeoutPlugin bounds every statement whose context carries no
// deadline. Statements inside a transaction scope inherit the scope's
// deadline and are left alone.
type QueryTimeoutPlugin struct {
	timeout time.Duration
}

// NewQueryTimeoutPlugin creates the plugin; a non-positive timeout disables it
func NewQueryTimeoutPlugin(timeout time.Duration) *QueryTimeoutPlugin {
	return &QueryTimeoutPlugin{timeout: timeout}
}

// Name implements gorm.Plugin
func (p *QueryTimeoutPlugin) Name() string {
	return queryTimeoutPluginName
}

// Initialize implements gorm.Plugin
func (p *QueryTimeoutPlugin) Initialize(db *gorm.DB) error {
	if p.timeout <= 0 {
		return nil
	}
	cb := db.Callback()
	before, after := queryTimeoutPluginName+":before", queryTimeoutPluginName+":after"

	if err := cb.Create().Before("gorm:create").Register(before, p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(after, p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register(before, p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(after, p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register(before, p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(after, p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register(before, p.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(after, p.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register(before, p.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(after, p.after)
}

func (p *QueryTimeoutPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	db.Statement.Context = ctx
	db.InstanceSet(queryCancelKey, cancel)
}

func (p *QueryTimeoutPlugin) after(db *gorm.DB) {
	if v, ok := db.InstanceGet(queryCancelKey); ok {
		if cancel, ok := v.(context.CancelFunc); ok {
			cancel()
		}
	}
}
