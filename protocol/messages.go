package protocol

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// routeValidate is the validator instance for wire messages
var routeValidate *validator.Validate

func init() {
	v, err := newRouteValidator()
	if err != nil {
		panic(err)
	}
	routeValidate = v
}

func newRouteValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("finite", validateFinite); err != nil {
		return nil, fmt.Errorf("register finite validation: %w", err)
	}
	return v, nil
}

// finite rejects NaN and +-Inf
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type EdgeSpec struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Weight float64 `json:"weight" validate:"finite,gte=0"`
}

// GraphSpec is an undirected weighted graph on the wire. Nodes lists
// isolated nodes, or every node when the caller wants a fixed order.
type GraphSpec struct {
	Nodes []string   `json:"nodes,omitempty" validate:"dive,required"`
	Edges []EdgeSpec `json:"edges" validate:"required,min=1,dive"`
}

// RouteRequest asks for up to NumPaths energy-aware routes from Source to Dest.
// Either Graph or Topology names the network; Energy may be omitted when the
// named topology carries default energies.
type RouteRequest struct {
	RequestID string             `json:"request_id,omitempty"`
	Algorithm string             `json:"algorithm,omitempty"`
	Topology  string             `json:"topology,omitempty"`
	Graph     *GraphSpec         `json:"graph,omitempty" validate:"omitempty"`
	Energy    map[string]float64 `json:"energy,omitempty" validate:"omitempty,dive,keys,required,endkeys,finite"`
	Source    string             `json:"source" validate:"required"`
	Dest      string             `json:"dest" validate:"required"`
	Threshold float64            `json:"threshold" validate:"finite,gt=0"`
	NumPaths  int                `json:"num_paths,omitempty" validate:"gte=0"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

func (r *RouteRequest) Validate() error {
	return routeValidate.Struct(r)
}

// EnsureDefaults assigns a request ID and timestamp when the caller left them empty
func (r *RouteRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

type RouteStats struct {
	Iterations       int  `json:"iterations"`
	Duplicates       int  `json:"duplicates"`
	Rejected         int  `json:"rejected"`
	Accepted         int  `json:"accepted"`
	CandidatesPushed int  `json:"candidates_pushed"`
	DetourFailures   int  `json:"detour_failures"`
	LoopsDropped     int  `json:"loops_dropped"`
	Truncated        bool `json:"truncated"`
}

// RouteResponse carries the accepted paths in acceptance order; Costs[i] is
// the weight of Paths[i] and Weights[i] its traffic share out of 100.
// On failure only ErrorCode and Error are set.
type RouteResponse struct {
	RequestID string             `json:"request_id,omitempty"`
	Algorithm string             `json:"algorithm,omitempty"`
	Paths     [][]string         `json:"paths"`
	Costs     []float64          `json:"costs,omitempty"`
	Weights   []int              `json:"weights,omitempty"`
	Remaining map[string]float64 `json:"remaining,omitempty"`
	Stats     *RouteStats        `json:"stats,omitempty"`
	ElapsedMs float64            `json:"elapsed_ms"`
	ErrorCode ErrorCode          `json:"error_code,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Err turns an error response back into a Go error
func (r *RouteResponse) Err() error {
	if r.ErrorCode == "" {
		return nil
	}
	return &RemoteError{Code: r.ErrorCode, Message: r.Error}
}

type StatusRequest struct {
	RequestID string `json:"request_id,omitempty"`
}

// StatusResponse is the server's self-report
type StatusResponse struct {
	Hostname       string   `json:"hostname"`
	UptimeSeconds  uint64   `json:"uptime_seconds"`
	CPUPercent     float64  `json:"cpu_percent"`
	MemUsedPercent float64  `json:"mem_used_percent"`
	Load1          float64  `json:"load1"`
	Goroutines     int      `json:"goroutines"`
	RequestsServed uint64   `json:"requests_served"`
	RequestsFailed uint64   `json:"requests_failed"`
	Algorithms     []string `json:"algorithms"`
	Topologies     []string `json:"topologies"`
}
