package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ComputePolicy is the part of the computation policy that may change while the
// process runs. The engine variant is fixed at startup.
type ComputePolicy struct {
	SlowThreshold  time.Duration `mapstructure:"slowThreshold"`
	RetryHoroscope bool          `mapstructure:"retryHoroscope"`
}

func DefaultComputePolicy(cfg Config) ComputePolicy {
	threshold := cfg.Engine.SlowThreshold
	if threshold <= 0 {
		threshold = 10 * time.Second
	}
	return ComputePolicy{
		SlowThreshold:  threshold,
		RetryHoroscope: cfg.Engine.RetryHoroscope,
	}
}

type ComputePolicyHolder struct {
	current atomic.Value // holds ComputePolicy
}

// StaticComputePolicy returns a holder that never reloads.
func StaticComputePolicy(policy ComputePolicy) *ComputePolicyHolder {
	holder := &ComputePolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewComputePolicyHolder(cfg Config) (*ComputePolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("compute")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/astrolabe")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ASTROLABE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultComputePolicy(cfg)
	v.SetDefault("compute.slowThreshold", defaults.SlowThreshold)
	v.SetDefault("compute.retryHoroscope", defaults.RetryHoroscope)

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	policy, err := readComputePolicy(v)
	if err != nil {
		return nil, err
	}

	holder := StaticComputePolicy(policy)
	if !fromFile {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readComputePolicy(v)
		if err != nil {
			log.Printf("[compute-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[compute-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ComputePolicyHolder) Get() ComputePolicy {
	return h.current.Load().(ComputePolicy)
}

func readComputePolicy(v *viper.Viper) (ComputePolicy, error) {
	policy := ComputePolicy{
		SlowThreshold:  v.GetDuration("compute.slowThreshold"),
		RetryHoroscope: v.GetBool("compute.retryHoroscope"),
	}
	if err := validateComputePolicy(policy); err != nil {
		return ComputePolicy{}, err
	}
	return policy, nil
}

func validateComputePolicy(policy ComputePolicy) error {
	if policy.SlowThreshold <= 0 {
		return errors.New("compute.slowThreshold must be positive")
	}
	return nil
}
