package core

import (
	"context"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func (h *Host) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if h == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := h.now().Sub(startedAt)

	contextFields := copyMap(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			contextFields["error_code"] = richErr.TextCode
			contextFields["error_category"] = string(richErr.Category)
		}
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if code, ok := contextFields["error_code"].(string); ok && code != "" {
		tags["error_code"] = code
	}

	h.recordCounter(ctx, "ledger."+operation+".total", 1, tags)
	h.recordHistogram(ctx, "ledger."+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)

	if err != nil {
		h.logError(ctx, operation+" failed", contextFields)
		return
	}
	h.logInfo(ctx, operation+" succeeded", contextFields)
}

func (h *Host) logInfo(ctx context.Context, message string, fields map[string]any) {
	h.logWithLevel(ctx, "info", message, fields)
}

func (h *Host) logError(ctx context.Context, message string, fields map[string]any) {
	h.logWithLevel(ctx, "error", message, fields)
}

func (h *Host) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if h == nil || h.logger == nil {
		return
	}
	logger := h.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(copyMap(fields))
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (h *Host) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if h == nil || h.metricsRecorder == nil {
		return
	}
	h.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (h *Host) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if h == nil || h.metricsRecorder == nil {
		return
	}
	h.metricsRecorder.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}

// NopMetricsRecorder drops every measurement.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
