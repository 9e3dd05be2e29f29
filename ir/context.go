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

// Package ir provides the SSA intermediate representation the pipeliner
// rewrites: operations with named operand segments, values with use lists,
// blocks and regions, plus a builder that inserts at explicit insertion
// points.
//
// The representation is single-threaded. A Context and every op created from
// it must only be mutated by one goroutine at a time.
package ir

// Context owns op identity allocation and the diagnostic handler for every
// op created from it.
type Context struct {
	nextID int
	diag   DiagnosticHandler
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithDiagnosticHandler routes remarks, warnings and errors emitted on ops to h.
func WithDiagnosticHandler(h DiagnosticHandler) ContextOption {
	return func(c *Context) {
		c.diag = h
	}
}

// NewContext creates a new Context. Diagnostics go to klog unless a handler
// is configured.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		diag: KlogHandler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Diagnostics returns the handler diagnostics are reported to.
func (c *Context) Diagnostics() DiagnosticHandler {
	return c.diag
}

func (c *Context) newID() int {
	id := c.nextID
	c.nextID++
	return id
}
