package event_monitor

import "github.com/google/wire"

var Wired = wire.NewSet(
	NewConfig,
	New,
)
