package service

import "time"

const (
	defaultWorkerCount = 1

	outcomeFlushSize     = 5000
	outcomeFlushInterval = 5 * time.Second
	outcomeFlushRPS      = 20
)
