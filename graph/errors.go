// SPDX-License-Identifier: EPL-2.0

package graph

import "errors"

var (
	// ErrIndexSize is returned for a port index the node does not have.
	ErrIndexSize = errors.New("graph: port index out of range")
	// ErrOtherContext is returned when connecting nodes of two contexts.
	ErrOtherContext = errors.New("graph: nodes belong to different contexts")
	// ErrInvalidState is returned when a source is started twice or
	// stopped before it was started.
	ErrInvalidState = errors.New("graph: invalid state")
	// ErrInvalidValue marks out of range automation arguments.
	ErrInvalidValue = errors.New("graph: invalid value")
)
