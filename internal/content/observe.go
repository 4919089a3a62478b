package content

import (
	"context"
	"sync"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/observability"
)

// operation is the span and log line around one service call.
type operation struct {
	ctx      context.Context
	name     string
	observer observability.Provider
	span     observability.Span
	timer    *utils.Timer
	once     sync.Once
}

// begin starts an operation. The returned context carries the observer so
// the extractor and the client log under the same span.
func (s *Service) begin(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, *operation) {
	op := &operation{name: name, observer: s.observer, timer: utils.NewTimer()}
	if s.observer == nil {
		op.ctx = ctx
		return ctx, op
	}

	ctx = observability.ContextWithObserver(ctx, s.observer)
	attrs = append([]observability.Attribute{observability.String(observability.AttrContentOperation, name)}, attrs...)
	ctx, op.span = s.observer.StartSpan(ctx, observability.SpanContentOperation, attrs...)
	op.ctx = ctx
	return ctx, op
}

// end closes the operation once; later calls are ignored.
func (op *operation) end(err error, attrs ...observability.Attribute) {
	op.once.Do(func() {
		elapsed := op.timer.Stop()
		if op.observer == nil {
			return
		}

		attrs = append(attrs,
			observability.String(observability.AttrContentOperation, op.name),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		if err != nil {
			op.span.RecordError(err)
			op.span.SetStatus(observability.StatusError, err.Error())
			op.observer.Error(op.ctx, "content operation failed", append(attrs, observability.Error(err))...)
		} else {
			op.span.SetStatus(observability.StatusOK, "")
			op.observer.Info(op.ctx, "content operation completed", attrs...)
		}
		op.span.End()
	})
}

// warn logs through the operation's observer, if any.
func (op *operation) warn(msg string, attrs ...observability.Attribute) {
	if op.observer != nil {
		op.observer.Warn(op.ctx, msg, attrs...)
	}
}
