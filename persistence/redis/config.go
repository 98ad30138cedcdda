package redis

import "time"

type Config struct {
	Addrs     []string
	Namespace string
	PoolSize  int
	Password  string
}

type QueueConfig struct {
	MessageQueue string
	ErrorQueue   string
	ConsumerName string
	PollInterval time.Duration
	// ConsumerTimeout is how long a consumer may miss heartbeats before its
	// in-flight messages are handed to the other consumers.
	ConsumerTimeout time.Duration
}
