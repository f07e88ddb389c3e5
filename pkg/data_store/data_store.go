package data_store

import (
	"github.com/jirwin/slackbridge/pkg/data_store/boltdb"
)

// DataStore hands out namespaced key/value stores. Every registered handler
// gets its own bucket, and internal components (media downloads) use
// reserved bucket names.
type DataStore interface {
	InitBucket(id string) error
	GetStore(id string) boltdb.Store
	Close()
}
