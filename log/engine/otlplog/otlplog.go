// Package otlplog exports log entries over OTLP/HTTP. Importing it
// registers the "otlp" engine type.
package otlplog

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/proto"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/engine"
)

// Defaults for the exporter.
const (
	DefaultTimeout = 10 * time.Second
	DefaultService = "cakephp"

	scopeName = "github.com/SplicePHP/cakephp/log"
)

func init() {
	log.RegisterEngine("otlp", func(cfg log.Config) (log.Engine, error) {
		return New(cfg)
	})
}

// Engine posts each entry as an OTLP ExportLogsServiceRequest encoded in
// protobuf. Exports are synchronous; wrap the engine in an async policy
// when the caller must not block on the collector.
//
// Options:
//
//	endpoint: full collector URL, e.g. http://collector:4318/v1/logs (required)
//	service:  resource service.name attribute (default "cakephp")
//	timeout:  per-export HTTP timeout (default 10s)
type Engine struct {
	engine.Base
	endpoint string
	client   *http.Client
	resource *resourcepb.Resource
}

// New builds an OTLP engine from cfg.
func New(cfg log.Config) (*Engine, error) {
	opts := engine.Options(cfg.Options)
	endpoint, err := opts.String("endpoint", "")
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, errors.New("otlplog: engine requires an endpoint option")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("otlplog: endpoint %q must be an http or https URL", endpoint)
	}
	service, err := opts.String("service", DefaultService)
	if err != nil {
		return nil, err
	}
	timeout, err := opts.Duration("timeout", DefaultTimeout)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Base:     engine.NewBase(cfg),
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		resource: &resourcepb.Resource{
			Attributes: []*commonpb.KeyValue{{
				Key:   "service.name",
				Value: stringValue(service),
			}},
		},
	}, nil
}

// severityNumber maps RFC 5424 severities onto the OTLP severity scale,
// where larger numbers are more severe.
func severityNumber(l log.Level) logspb.SeverityNumber {
	switch l {
	case log.LevelEmergency:
		return logspb.SeverityNumber_SEVERITY_NUMBER_FATAL3
	case log.LevelAlert:
		return logspb.SeverityNumber_SEVERITY_NUMBER_FATAL2
	case log.LevelCritical:
		return logspb.SeverityNumber_SEVERITY_NUMBER_FATAL
	case log.LevelError:
		return logspb.SeverityNumber_SEVERITY_NUMBER_ERROR
	case log.LevelWarning:
		return logspb.SeverityNumber_SEVERITY_NUMBER_WARN
	case log.LevelNotice:
		return logspb.SeverityNumber_SEVERITY_NUMBER_INFO2
	case log.LevelInfo:
		return logspb.SeverityNumber_SEVERITY_NUMBER_INFO
	case log.LevelDebug:
		return logspb.SeverityNumber_SEVERITY_NUMBER_DEBUG
	default:
		return logspb.SeverityNumber_SEVERITY_NUMBER_UNSPECIFIED
	}
}

func stringValue(s string) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: s}}
}

func scopesValue(scopes []string) *commonpb.AnyValue {
	values := make([]*commonpb.AnyValue, len(scopes))
	for i, s := range scopes {
		values[i] = stringValue(s)
	}
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{
		ArrayValue: &commonpb.ArrayValue{Values: values},
	}}
}

// Write exports one log record. Export failures are reported on stderr.
func (e *Engine) Write(level log.Level, message string, scopes []string) {
	now := uint64(time.Now().UnixNano()) //nolint:gosec // wall clock is non-negative
	record := &logspb.LogRecord{
		TimeUnixNano:         now,
		ObservedTimeUnixNano: now,
		SeverityNumber:       severityNumber(level),
		SeverityText:         level.String(),
		Body:                 stringValue(message),
	}
	if len(scopes) > 0 {
		record.Attributes = []*commonpb.KeyValue{{
			Key:   "scopes",
			Value: scopesValue(scopes),
		}}
	}

	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{
			Resource: e.resource,
			ScopeLogs: []*logspb.ScopeLogs{{
				Scope:      &commonpb.InstrumentationScope{Name: scopeName},
				LogRecords: []*logspb.LogRecord{record},
			}},
		}},
	}
	body, err := proto.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "otlplog: encode: %v\n", err)
		return
	}
	if err := e.export(body); err != nil {
		fmt.Fprintf(os.Stderr, "otlplog: export: %v\n", err)
	}
}

func (e *Engine) export(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections held by the HTTP client.
func (e *Engine) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	e.client.CloseIdleConnections()
	return nil
}
