package common

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrAlgorithmExists   = errors.New("algorithm already registered")
	ErrAlgorithmNotFound = errors.New("algorithm not found in registry")
)

// AlgorithmRegistry manages available routing algorithms
type AlgorithmRegistry struct {
	calculators map[string]PathCalculator
	mu          sync.RWMutex
}

var globalRegistry = NewAlgorithmRegistry()

func NewAlgorithmRegistry() *AlgorithmRegistry {
	return &AlgorithmRegistry{calculators: make(map[string]PathCalculator)}
}

// Register adds calculator under name. Names are unique.
func (ar *AlgorithmRegistry) Register(name string, calculator PathCalculator) error {
	if calculator == nil {
		return fmt.Errorf("algorithm '%s': nil calculator", name)
	}
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if _, exists := ar.calculators[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrAlgorithmExists, name)
	}
	ar.calculators[name] = calculator
	return nil
}

func (ar *AlgorithmRegistry) Get(name string) (PathCalculator, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	calc, exists := ar.calculators[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrAlgorithmNotFound, name)
	}
	return calc, nil
}

// List returns all registered algorithm names, sorted
func (ar *AlgorithmRegistry) List() []string {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	names := make([]string, 0, len(ar.calculators))
	for name := range ar.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetGlobalRegistry() *AlgorithmRegistry {
	return globalRegistry
}

func RegisterGlobal(name string, calculator PathCalculator) error {
	return globalRegistry.Register(name, calculator)
}

func GetGlobal(name string) (PathCalculator, error) {
	return globalRegistry.Get(name)
}

func ListGlobal() []string {
	return globalRegistry.List()
}
