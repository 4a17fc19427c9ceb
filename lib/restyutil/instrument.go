package restyutil

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	idcounter *uint64
}

// messageCounter numbers dumped messages across every client of the
// process, so clients sharing an output never overwrite each other.
var messageCounter uint64

type messageIDKey struct{}

// InstrumentClient dumps every request/response pair to output while debug
// logging is enabled, a nil output is a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	i := instrumentCtx{output: output, idcounter: &messageCounter}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return nil
	}

	messageID := strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	slog.DebugContext(
		ctx, "start request",
		"method", req.Method,
		"url", req.URL,
		"message_id", messageID,
	)
	req.SetContext(context.WithValue(ctx, messageIDKey{}, messageID))
	return nil
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	messageID, ok := ctx.Value(messageIDKey{}).(string)
	if !ok {
		return nil
	}

	i.output.Write(messageID, formatHttpMessage(res))
	slog.DebugContext(
		ctx, "request finished",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"message_id", messageID,
	)
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	attrs := []any{
		"method", req.Method,
		"url", req.URL,
		"err", err,
	}
	messageID, ok := req.Context().Value(messageIDKey{}).(string)
	if ok {
		attrs = append(attrs, "message_id", messageID)
	}
	slog.DebugContext(req.Context(), "request failed", attrs...)
}
