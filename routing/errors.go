package routing

import (
	"context"
	"errors"

	"energy_routing/common"
	psc "energy_routing/path_scheduling/common"
	"energy_routing/path_scheduling/energy_multipath"
	"energy_routing/path_scheduling/graph"
	"energy_routing/protocol"

	"github.com/go-playground/validator/v10"
)

var (
	errGraphAndTopology = errors.New("graph and topology are mutually exclusive")
	errNoNetwork        = errors.New("either graph or topology is required")
	errNoEnergy         = errors.New("energy map is required when the topology has no defaults")
)

// CodeFor classifies err into a wire error code
func CodeFor(err error) protocol.ErrorCode {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return ""
	case errors.Is(err, graph.ErrNoPath):
		return protocol.CodeNoPath
	case errors.Is(err, graph.ErrUnknownNode):
		return protocol.CodeUnknownNode
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return protocol.CodeTimeout
	case errors.Is(err, common.ErrUnknownTopology):
		return protocol.CodeUnknownTopology
	case errors.Is(err, psc.ErrAlgorithmNotFound):
		return protocol.CodeUnknownAlgorithm
	case errors.Is(err, energy_multipath.ErrInvalidArgument),
		errors.Is(err, graph.ErrInvalidWeight),
		errors.Is(err, errGraphAndTopology),
		errors.Is(err, errNoNetwork),
		errors.Is(err, errNoEnergy),
		errors.As(err, &validationErrs):
		return protocol.CodeInvalidArgument
	default:
		return protocol.CodeInternal
	}
}
