package boltdb

import "github.com/boltdb/bolt"

// Store is a key/value view over a single named bucket.
type Store interface {
	ForEach(forEachFunc func(bucket *bolt.Bucket, key string, value []byte) error) error
	Update(key string, value []byte) error
	UpdateRaw(updateFunc func(*bolt.Bucket) error) error
	GetAndUpdate(key string, updateFunc func([]byte) ([]byte, error)) error
	Get(key string, getFunc func([]byte) error) error
}

type bucketStore struct {
	bucketID string
	db       *bolt.DB
}

func (s *bucketStore) ForEach(forEachFunc func(bucket *bolt.Bucket, key string, value []byte) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.bucketID))

		return bkt.ForEach(func(k []byte, v []byte) error {
			return forEachFunc(bkt, string(k), v)
		})
	})
}

// Update stores the value at the provided key.
func (s *bucketStore) Update(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.bucketID))

		return bkt.Put([]byte(key), value)
	})
}

// UpdateRaw allows direct access to the bucket when the simple key value
// interface doesn't work.
func (s *bucketStore) UpdateRaw(updateFunc func(*bolt.Bucket) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.bucketID))

		return updateFunc(bkt)
	})
}

// GetAndUpdate retrieves a key and passes its value to the provided
// updateFunc, storing whatever comes back. This allows transforming data
// atomically. A nil return from updateFunc leaves the key untouched.
func (s *bucketStore) GetAndUpdate(key string, updateFunc func([]byte) ([]byte, error)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.bucketID))

		byteKey := []byte(key)
		updateVal, err := updateFunc(bkt.Get(byteKey))
		if err != nil {
			return err
		}

		if updateVal != nil {
			return bkt.Put(byteKey, updateVal)
		}
		return nil
	})
}

// Get retrieves a key and passes its value to the provided getFunc.
func (s *bucketStore) Get(key string, getFunc func([]byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.bucketID))

		return getFunc(bkt.Get([]byte(key)))
	})
}
