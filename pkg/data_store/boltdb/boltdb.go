package boltdb

import (
	"fmt"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// rootBucket holds one sub-bucket per store id.
const rootBucket = "handlers"

type Config struct {
	DbPath string
}

func NewConfig() (Config, error) {
	c := Config{}

	dbPath := os.Getenv("SLACKBRIDGE_DB_PATH")
	if dbPath == "" {
		return Config{}, fmt.Errorf("SLACKBRIDGE_DB_PATH must be set")
	}
	c.DbPath = dbPath

	return c, nil
}

type BoltDbStore struct {
	c  Config
	l  *zap.Logger
	db *bolt.DB
}

func (b *BoltDbStore) InitBucket(id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		rootBkt, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		if err != nil {
			return err
		}

		_, err = rootBkt.CreateBucketIfNotExists([]byte(id))
		return err
	})
}

func (b *BoltDbStore) GetStore(id string) Store {
	return &bucketStore{
		bucketID: id,
		db:       b.db,
	}
}

func (b *BoltDbStore) Close() {
	if b.db != nil {
		b.db.Close()
		b.db = nil
	}
}

func New(c Config, l *zap.Logger) (*BoltDbStore, error) {
	b := &BoltDbStore{
		c: c,
		l: l.Named("boltdb-datastore"),
	}

	db, err := bolt.Open(c.DbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	b.db = db

	return b, nil
}
