// Package bolt persists fetched packages in a bbolt file so repeated CLI runs
// don't fetch them again.
package bolt

import (
	"context"
	"fmt"
	"slices"
	"time"

	backend "go.etcd.io/bbolt"

	"github.com/aretw0/viewhost/pkg/domain"
)

const bucketPackages = "packages"

// Cache implements ports.PackageCache on a bbolt database.
type Cache struct {
	db *backend.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Cache, error) {
	db, err := backend.Open(path, 0o600, &backend.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open package cache %s: %w", path, err)
	}
	err = db.Update(func(tx *backend.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPackages))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize package cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.db.View(func(tx *backend.Tx) error {
		v := tx.Bucket([]byte(bucketPackages)).Get([]byte(key))
		if v == nil {
			return domain.ErrPackageNotFound
		}
		// v is only valid inside the transaction.
		data = slices.Clone(v)
		return nil
	})
	return data, err
}

func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	return c.db.Update(func(tx *backend.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).Put([]byte(key), data)
	})
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(tx *backend.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).Delete([]byte(key))
	})
}

func (c *Cache) Flush(ctx context.Context) error {
	return c.db.Update(func(tx *backend.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketPackages)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketPackages))
		return err
	})
}

// Keys lists the cached package keys in order.
func (c *Cache) Keys() ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *backend.Tx) error {
		return tx.Bucket([]byte(bucketPackages)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
