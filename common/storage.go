package common

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Getter is a read-only view of a key-value store.
type Getter interface {
	Get(key []byte) ([]byte, error)
}

// Putter is a writable view of a key-value store.
type Putter interface {
	Put(key, value []byte)
}

// GetSerialized reads the value stored by key and decodes it into v. It returns
// false if there is no such key.
func GetSerialized(st Getter, key []byte, v stackitem.Convertible) (bool, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}

	item, err := stackitem.Deserialize(data)
	if err != nil {
		return false, fmt.Errorf("key %x: %w", key, err)
	}
	if err := v.FromStackItem(item); err != nil {
		return false, fmt.Errorf("key %x: %w", key, err)
	}
	return true, nil
}

// SetSerialized serializes data and puts it into the store.
func SetSerialized(st Putter, key []byte, v stackitem.Convertible) error {
	item, err := v.ToStackItem()
	if err != nil {
		return err
	}
	data, err := stackitem.Serialize(item)
	if err != nil {
		return fmt.Errorf("key %x: %w", key, err)
	}
	st.Put(key, data)
	return nil
}
