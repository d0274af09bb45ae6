package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	err := deps.Runner.InTx(ctx, fn)
	return observe(deps.Hooks, normalizeOp(op, "store.write"), start, err)
}

func executeRead(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	err := fn(dbctx.Context{Ctx: ctx})
	return observe(deps.Hooks, normalizeOp(op, "store.read"), start, err)
}

// observe maps err, feeds the hooks and returns the mapped error.
func observe(hooks Hooks, op string, start time.Time, err error) error {
	if hooks == nil {
		hooks = noopHooks{}
	}
	mapped := MapError(op, err)
	status := "success"
	if mapped != nil {
		status = errorStatus(mapped)
		switch types.CodeOf(mapped) {
		case types.CodePersistenceConflict:
			hooks.IncConflict(op)
		case types.CodePersistenceUnavailable:
			hooks.IncUnavailable(op)
		}
	}
	hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func normalizeOp(op, def string) string {
	op = strings.TrimSpace(op)
	if op == "" {
		return def
	}
	return op
}

func errorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(types.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(types.CodeOf(MapError("store.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
