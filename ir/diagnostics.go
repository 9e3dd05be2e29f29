// Copyright 2025 go-pipeliner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"fmt"

	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// SeverityRemark is an informational note, typically about performance.
	SeverityRemark Severity = iota

	// SeverityWarning flags something suspicious that does not stop the pass.
	SeverityWarning

	// SeverityError reports a failure. The pass that emitted it is expected
	// to return an error as well.
	SeverityError
)

// String returns a human-readable name for the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityRemark:
		return "remark"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// Diagnostic is a message attached to an op.
type Diagnostic struct {
	Severity Severity
	Op       *Op
	Message  string
}

// String formats the diagnostic as "loc: severity: message".
func (d Diagnostic) String() string {
	loc := "unknown"
	if d.Op != nil {
		loc = d.Op.Loc().String()
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
}

// DiagnosticHandler receives diagnostics emitted on ops.
type DiagnosticHandler interface {
	Handle(d Diagnostic)
}

// DiagnosticHandlerFunc adapts a function to DiagnosticHandler.
type DiagnosticHandlerFunc func(d Diagnostic)

// Handle calls f(d).
func (f DiagnosticHandlerFunc) Handle(d Diagnostic) {
	f(d)
}

// KlogHandler logs diagnostics through klog at the level matching their
// severity.
type KlogHandler struct{}

// Handle implements DiagnosticHandler.
func (KlogHandler) Handle(d Diagnostic) {
	switch d.Severity {
	case SeverityError:
		klog.ErrorDepth(2, d.String())
	case SeverityWarning:
		klog.WarningDepth(2, d.String())
	default:
		klog.InfoDepth(2, d.String())
	}
}

// DiagnosticCollector records every diagnostic it receives.
type DiagnosticCollector struct {
	Diagnostics []Diagnostic
}

// Handle implements DiagnosticHandler.
func (c *DiagnosticCollector) Handle(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// WithSeverity returns the collected diagnostics of the given severity.
func (c *DiagnosticCollector) WithSeverity(s Severity) []Diagnostic {
	return lo.Filter(c.Diagnostics, func(d Diagnostic, _ int) bool {
		return d.Severity == s
	})
}

// Reset drops all collected diagnostics.
func (c *DiagnosticCollector) Reset() {
	c.Diagnostics = nil
}

func (op *Op) emit(s Severity, format string, args ...any) {
	if op.ctx == nil || op.ctx.diag == nil {
		return
	}
	op.ctx.diag.Handle(Diagnostic{
		Severity: s,
		Op:       op,
		Message:  fmt.Sprintf(format, args...),
	})
}

// EmitRemark reports an informational diagnostic on op.
func (op *Op) EmitRemark(format string, args ...any) {
	op.emit(SeverityRemark, format, args...)
}

// EmitWarning reports a warning on op.
func (op *Op) EmitWarning(format string, args ...any) {
	op.emit(SeverityWarning, format, args...)
}

// EmitError reports an error on op.
func (op *Op) EmitError(format string, args ...any) {
	op.emit(SeverityError, format, args...)
}
