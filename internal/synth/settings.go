package synth

// Settings holds the constants of the emulated hardware and of the fake
// modules. DefaultSettings returns the values the runtime was tuned for.
type Settings struct {
	// ClockHz is the local clock speed.
	ClockHz float64 `yaml:"clock_hz" json:"clock_hz"`

	// QueuePopWaitMs is how long a module waits on an empty queue.
	QueuePopWaitMs int64 `yaml:"queue_pop_wait_ms" json:"queue_pop_wait_ms"`

	TimeSyncQueueCapacity int64 `yaml:"time_sync_queue_capacity" json:"time_sync_queue_capacity"`
	QueueCapacity         int64 `yaml:"queue_capacity" json:"queue_capacity"`

	MinReadoutWindowTicks int64 `yaml:"min_readout_window_ticks" json:"min_readout_window_ticks"`
	MaxReadoutWindowTicks int64 `yaml:"max_readout_window_ticks" json:"max_readout_window_ticks"`
	TriggerWindowOffset   int64 `yaml:"trigger_window_offset" json:"trigger_window_offset"`

	SyncIntervalTicks int64 `yaml:"sync_interval_ticks" json:"sync_interval_ticks"`
	InhibitIntervalMs int64 `yaml:"inhibit_interval_ms" json:"inhibit_interval_ms"`
	InitialTokens     int64 `yaml:"initial_tokens" json:"initial_tokens"`

	// TriggerDelaySeconds puts the trigger well inside the latency buffer.
	TriggerDelaySeconds float64 `yaml:"trigger_delay_seconds" json:"trigger_delay_seconds"`

	// MaxProducers caps the number of data producers, and so the length of
	// the emulator's link list.
	MaxProducers int64 `yaml:"max_producers" json:"max_producers"`
}

// DefaultSettings returns the stock constants.
func DefaultSettings() Settings {
	return Settings{
		ClockHz:               50_000_000,
		QueuePopWaitMs:        100,
		TimeSyncQueueCapacity: 100,
		QueueCapacity:         20,
		MinReadoutWindowTicks: 1200,
		MaxReadoutWindowTicks: 1200,
		TriggerWindowOffset:   1000,
		SyncIntervalTicks:     64_000_000,
		InhibitIntervalMs:     5000,
		InitialTokens:         10,
		TriggerDelaySeconds:   2,
		MaxProducers:          4096,
	}
}

// Validate checks that every setting is usable. It reports the first
// offending field.
func (s Settings) Validate() error {
	if !finite(s.ClockHz) || s.ClockHz <= 0 {
		return invalidParameter("clock_hz", "must be a positive number, got %v", s.ClockHz)
	}
	if !finite(s.TriggerDelaySeconds) || s.TriggerDelaySeconds < 0 {
		return invalidParameter("trigger_delay_seconds", "must be a non-negative number, got %v", s.TriggerDelaySeconds)
	}
	positive := []struct {
		name string
		v    int64
	}{
		{"queue_pop_wait_ms", s.QueuePopWaitMs},
		{"time_sync_queue_capacity", s.TimeSyncQueueCapacity},
		{"queue_capacity", s.QueueCapacity},
		{"sync_interval_ticks", s.SyncIntervalTicks},
		{"inhibit_interval_ms", s.InhibitIntervalMs},
		{"max_producers", s.MaxProducers},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return invalidParameter(p.name, "must be positive, got %d", p.v)
		}
	}
	if s.MinReadoutWindowTicks < 0 || s.MaxReadoutWindowTicks < s.MinReadoutWindowTicks {
		return invalidParameter("max_readout_window_ticks", "readout window [%d, %d] is empty",
			s.MinReadoutWindowTicks, s.MaxReadoutWindowTicks)
	}
	if s.InitialTokens < 0 {
		return invalidParameter("initial_tokens", "must not be negative, got %d", s.InitialTokens)
	}
	return nil
}
