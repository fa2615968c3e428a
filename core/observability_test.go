package core

import (
	"context"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func newObservedSuite(t *testing.T) (*testSuite, *captureMetricsRecorder, *captureLogger) {
	t.Helper()
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	s := newTestSuite(t,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)
	return s, metrics, logger
}

func TestHostObservability_OperationSuccess(t *testing.T) {
	s, metrics, logger := newObservedSuite(t)
	s.mint(t, spenderAccount, 10)

	if !hasCounter(metrics.counters, "ledger.token.mint.total", "success") {
		t.Fatalf("expected ledger.token.mint.total success counter")
	}
	if !hasHistogram(metrics.histograms, "ledger.token.mint.duration_ms", "success") {
		t.Fatalf("expected ledger.token.mint.duration_ms histogram")
	}
	if !hasLog(logger.snapshot(), "info", "token.mint succeeded", "token.mint") {
		t.Fatalf("expected token.mint succeeded structured log")
	}
}

func TestHostObservability_OperationFailure(t *testing.T) {
	s, metrics, logger := newObservedSuite(t)

	_, err := s.token.Burn(context.Background(), spenderAccount, 5, nil)
	if err == nil {
		t.Fatalf("expected burn without balance to fail")
	}
	if !hasCounter(metrics.counters, "ledger.token.burn.total", "failure") {
		t.Fatalf("expected token burn failure counter")
	}
	var tagged bool
	for _, counter := range metrics.counters {
		if counter.name == "ledger.token.burn.total" && counter.tags["error_code"] == LedgerErrorInsufficientFunds {
			tagged = true
		}
	}
	if !tagged {
		t.Fatalf("expected failure counter to carry the error code tag")
	}
	if !hasLog(logger.snapshot(), "error", "token.burn failed", "token.burn") {
		t.Fatalf("expected token burn failure log")
	}
}

func TestHostObservability_EnrichesStructuredErrorFields(t *testing.T) {
	s, _, logger := newObservedSuite(t)

	richErr := goerrors.New("store unavailable", goerrors.CategoryExternal).
		WithTextCode(LedgerErrorInternal)
	s.host.observeOperation(
		context.Background(),
		time.Now().UTC().Add(-100*time.Millisecond),
		"token.send",
		richErr,
		map[string]any{"caller": spenderAccount.Hex()},
	)

	records := logger.snapshot()
	if len(records) == 0 {
		t.Fatalf("expected logs to be emitted")
	}
	last := records[len(records)-1]
	if last.fields["error_category"] != "external" {
		t.Fatalf("expected error_category external, got %#v", last.fields["error_category"])
	}
	if last.fields["error_code"] != LedgerErrorInternal {
		t.Fatalf("expected error_code %q, got %#v", LedgerErrorInternal, last.fields["error_code"])
	}
	if last.fields["caller"] != spenderAccount.Hex() {
		t.Fatalf("expected caller propagation, got %#v", last.fields["caller"])
	}
	if last.fields["status"] != "failure" {
		t.Fatalf("expected failure status, got %#v", last.fields["status"])
	}
}

func TestHostObservability_HandlerFailureIsOnlyLogged(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	s := newTestSuite(t,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
		WithEventHandler("broken", EventHandlerFunc(func(context.Context, LedgerEvent) error {
			return goerrors.New("projection down", goerrors.CategoryExternal)
		})),
	)

	s.mint(t, spenderAccount, 10)
	if got := s.balance(t, spenderAccount); got != 10 {
		t.Fatalf("expected committed mint despite handler failure, got %d", got)
	}
	var logged bool
	for _, record := range logger.snapshot() {
		if record.level == "error" && record.msg == "event handler failed" && record.fields["event_name"] == EventMinted {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected handler failure to be logged")
	}
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, message string, operation string) bool {
	for _, item := range items {
		if item.level != level {
			continue
		}
		if item.msg != message {
			continue
		}
		if item.fields["operation"] == operation {
			return true
		}
	}
	return false
}
