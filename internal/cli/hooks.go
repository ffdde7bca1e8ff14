package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bigpicture/pkg/observability"
)

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.HTTPHooks     = (*logHooks)(nil)
)

// logHooks reports observability events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load started", "source", source)
}

func (h *logHooks) OnLoadComplete(_ context.Context, source string, commits int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "error", err, "duration", d)
		return
	}
	h.logger.Debug("load finished", "source", source, "commits", commits, "duration", d)
}

func (h *logHooks) OnFilterStart(_ context.Context, commits int) {
	h.logger.Debug("filter started", "commits", commits)
}

func (h *logHooks) OnFilterComplete(_ context.Context, kept int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("filter failed", "error", err, "duration", d)
		return
	}
	h.logger.Debug("filter finished", "kept", kept, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render started", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "error", err, "duration", d)
		return
	}
	h.logger.Debug("render finished", "format", format, "bytes", size, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, requestID, method, path string) {
	h.logger.Debug("request started", "id", requestID, "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, requestID, method, path string, status int, d time.Duration) {
	h.logger.Debug("request finished", "id", requestID, "method", method, "path", path, "status", status, "duration", d)
}
