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

package pipeliner

import (
	"fmt"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/pkg/errors"
)

// ErrUnsupportedOp is matched by every error reporting an op the pipeliner
// cannot predicate. A pass receiving it must stop: the loop is left half
// rewritten and would be miscompiled if lowered.
var ErrUnsupportedOp = errors.New("pipeliner doesn't know how to predicate this op")

// UnsupportedOpError reports the op PredicateOp had no strategy for.
type UnsupportedOpError struct {
	Op *ir.Op
}

func (e *UnsupportedOpError) Error() string {
	return fmt.Sprintf("%s: %s at %s", ErrUnsupportedOp, e.Op.Name(), e.Op.Loc())
}

// Is makes errors.Is(err, ErrUnsupportedOp) hold.
func (e *UnsupportedOpError) Is(target error) bool {
	return target == ErrUnsupportedOp
}
