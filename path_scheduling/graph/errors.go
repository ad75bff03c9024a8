package graph

import "errors"

var (
	// ErrNoPath indicates that no route connects the queried nodes
	ErrNoPath = errors.New("no path between nodes")

	// ErrUnknownNode indicates a node that is not part of the graph
	ErrUnknownNode = errors.New("unknown node")

	ErrEdgeNotFound = errors.New("edge not found")

	ErrInvalidWeight = errors.New("edge weight must be a finite non-negative number")

	ErrInvalidPath = errors.New("invalid path")
)
