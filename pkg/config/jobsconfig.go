package config

import (
	"time"

	"github.com/NeoOne601/ventro/pkg/jobs"
)

// JobsConfig is C13's worker-pool tuning surface, the direct generalization
// of the teacher's own QueueConfig (worker count, poll interval/jitter,
// orphan detection) from AlertSession polling to jobs.Pool's task claiming.
type JobsConfig struct {
	WorkerCount             int           `yaml:"worker_count"`
	PollInterval            time.Duration `yaml:"poll_interval"`
	PollIntervalJitter      time.Duration `yaml:"poll_interval_jitter"`
	HeartbeatInterval       time.Duration `yaml:"heartbeat_interval"`
	OrphanThreshold         time.Duration `yaml:"orphan_threshold"`
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`
	MaxConcurrentTasks      int           `yaml:"max_concurrent_tasks"`
	SoftTimeout             time.Duration `yaml:"soft_timeout"`
	HardTimeout             time.Duration `yaml:"hard_timeout"`
	MaxAttempts             int           `yaml:"max_attempts"`
	BackoffBase             time.Duration `yaml:"backoff_base"`
	BackoffMax              time.Duration `yaml:"backoff_max"`
}

// ToJobsConfig converts the YAML shape to jobs.Config.
func (c JobsConfig) ToJobsConfig() jobs.Config {
	return jobs.Config{
		WorkerCount:             c.WorkerCount,
		PollInterval:            c.PollInterval,
		PollIntervalJitter:      c.PollIntervalJitter,
		HeartbeatInterval:       c.HeartbeatInterval,
		OrphanThreshold:         c.OrphanThreshold,
		OrphanDetectionInterval: c.OrphanDetectionInterval,
		MaxConcurrentTasks:      c.MaxConcurrentTasks,
		SoftTimeout:             c.SoftTimeout,
		HardTimeout:             c.HardTimeout,
		MaxAttempts:             c.MaxAttempts,
		BackoffBase:             c.BackoffBase,
		BackoffMax:              c.BackoffMax,
	}
}

// DefaultJobsConfig mirrors jobs.DefaultConfig in the YAML-bound shape, so
// an empty or partial `jobs:` stanza still merges onto sane values.
func DefaultJobsConfig() JobsConfig {
	d := jobs.DefaultConfig()
	return JobsConfig{
		WorkerCount:             d.WorkerCount,
		PollInterval:            d.PollInterval,
		PollIntervalJitter:      d.PollIntervalJitter,
		HeartbeatInterval:       d.HeartbeatInterval,
		OrphanThreshold:         d.OrphanThreshold,
		OrphanDetectionInterval: d.OrphanDetectionInterval,
		MaxConcurrentTasks:      d.MaxConcurrentTasks,
		SoftTimeout:             d.SoftTimeout,
		HardTimeout:             d.HardTimeout,
		MaxAttempts:             d.MaxAttempts,
		BackoffBase:             d.BackoffBase,
		BackoffMax:              d.BackoffMax,
	}
}
