package progression

import "time"

// Config engine policy
type Config struct {
	// GateQuizView refuse to advance into the quiz until all lessons are done,
	// otherwise only answering is gated
	GateQuizView bool
	// RetryDelay wait before the single retry of a failed save
	RetryDelay time.Duration
	// SaveTimeout bounds one save attempt, saves outlive the request that caused them
	SaveTimeout time.Duration
}

// DefaultConfig .
func DefaultConfig() *Config {
	return &Config{
		RetryDelay:  300 * time.Millisecond,
		SaveTimeout: 10 * time.Second,
	}
}
