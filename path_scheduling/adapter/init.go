package adapter

import (
	"energy_routing/path_scheduling/common"
	"energy_routing/path_scheduling/energy_multipath"

	log "github.com/sirupsen/logrus"
)

const (
	EnergyMultipath       = "energy_multipath"
	EnergyMultipathSplice = "energy_multipath_splice"
)

// init registers the built-in calculators
func init() {
	if err := common.RegisterGlobal(EnergyMultipath, NewEnergyMultipathAdapter(energy_multipath.Options{
		Mode: energy_multipath.DetourRaw,
	})); err != nil {
		log.Warnf("Failed to register %s adapter: %v", EnergyMultipath, err)
	}

	if err := common.RegisterGlobal(EnergyMultipathSplice, NewEnergyMultipathAdapter(energy_multipath.Options{
		Mode: energy_multipath.DetourSplice,
	})); err != nil {
		log.Warnf("Failed to register %s adapter: %v", EnergyMultipathSplice, err)
	}

	log.Debugf("Available routing algorithms: %v", common.ListGlobal())
}
