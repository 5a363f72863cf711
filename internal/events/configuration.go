package events

import "time"

// ConfigurationLoadStart is emitted before a configuration document is read.
type ConfigurationLoadStart struct {
	Generation uint64
}

// ConfigurationLoadFinish is emitted after a configuration document is read.
type ConfigurationLoadFinish struct {
	Generation uint64
	Subgraphs  int
	Types      int
	Err        error
	Duration   time.Duration
}
