// Package metrics emits the client's standard metric shapes onto a statsd.Sink.
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/storefront-go/internal/observability/errors"
	"github.com/target/storefront-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// RequestMetric captures one API round trip (including a replay after refresh).
type RequestMetric struct {
	Method   string
	Status   int
	Retried  bool
	Duration time.Duration
	Err      error
}

// EmitRequest emits api.request and api.request.duration.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	}
	tags := map[string]string{
		"method":  in.Method,
		"status":  strconv.Itoa(in.Status),
		"result":  result,
		"retried": strconv.FormatBool(in.Retried),
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.request.duration", in.Duration, CloneTags(tags))
	}
}

// SessionMetric captures a session state-machine transition.
type SessionMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitSessionTransition emits session.transition and session.transition.duration.
func EmitSessionTransition(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("session.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("session.transition.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
