package common

import (
	"time"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

type PoolConfig struct {
	MaxWorkers int
	// Nonblocking makes Submit fail with ants.ErrPoolOverload instead of waiting for a free worker
	Nonblocking    bool
	ExpiryDuration time.Duration
}

func NewPool(config PoolConfig) (*ants.Pool, error) {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 64
	}
	if config.ExpiryDuration <= 0 {
		config.ExpiryDuration = 10 * time.Second
	}

	pool, err := ants.NewPool(config.MaxWorkers,
		ants.WithNonblocking(config.Nonblocking),
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithPanicHandler(func(p interface{}) {
			log.Errorf("worker panic recovered: %v", p)
		}),
	)
	if err != nil {
		log.Errorf("Failed to create ants goroutine_pool: %v", err)
		return nil, err
	}

	log.Infof("NewPool: workers=%d nonblocking=%v", config.MaxWorkers, config.Nonblocking)
	return pool, nil
}
