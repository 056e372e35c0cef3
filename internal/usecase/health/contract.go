package health

import "context"

// Pinger probes one upstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CorpusCounter reports the size of the loaded exhibit table.
type CorpusCounter interface {
	Count() int
}
