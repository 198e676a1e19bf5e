package registry

import (
	"fmt"
	"sync"
)

// RegistryValidator is a function that validates a key-value pair before registration
type RegistryValidator[K comparable, V any] func(key K, value V, existing map[K]V) error

// Entry is a key-value pair in registration order
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// BaseRegistry provides a generic, thread-safe registry that remembers
// registration order, with built-in validation support
type BaseRegistry[K comparable, V any] struct {
	mu            sync.RWMutex
	items         map[K]V
	order         []K
	validator     RegistryValidator[K, V]
	registryName  string
	keyDescriptor string // e.g., "advisor name", "description id"
}

// NewBaseRegistry creates a new base registry with the specified configuration
func NewBaseRegistry[K comparable, V any](registryName, keyDesc string) *BaseRegistry[K, V] {
	return &BaseRegistry[K, V]{
		items:         make(map[K]V),
		registryName:  registryName,
		keyDescriptor: keyDesc,
	}
}

// SetValidator sets the validation function for this registry
func (r *BaseRegistry[K, V]) SetValidator(validator RegistryValidator[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = validator
}

// Register adds an item to the registry with validation
func (r *BaseRegistry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validate(key, value, r.items); err != nil {
		return err
	}
	r.put(key, value)
	return nil
}

// RegisterAll adds every entry or none of them. Entries are validated
// against the registry contents plus the entries preceding them.
func (r *BaseRegistry[K, V]) RegisterAll(entries []Entry[K, V]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[K]V, len(r.items)+len(entries))
	for k, v := range r.items {
		staged[k] = v
	}
	for _, e := range entries {
		if err := r.validate(e.Key, e.Value, staged); err != nil {
			return err
		}
		staged[e.Key] = e.Value
	}

	for _, e := range entries {
		r.put(e.Key, e.Value)
	}
	return nil
}

func (r *BaseRegistry[K, V]) validate(key K, value V, existing map[K]V) error {
	if r.validator == nil {
		return nil
	}
	if err := r.validator(key, value, existing); err != nil {
		return fmt.Errorf("%s registry: %w", r.registryName, err)
	}
	return nil
}

func (r *BaseRegistry[K, V]) put(key K, value V) {
	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = value
}

// Get retrieves an item from the registry
func (r *BaseRegistry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	return value, exists
}

// List returns all keys in registration order
func (r *BaseRegistry[K, V]) List() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, len(r.order))
	copy(keys, r.order)
	return keys
}

// Values returns all values in registration order
func (r *BaseRegistry[K, V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make([]V, 0, len(r.order))
	for _, k := range r.order {
		values = append(values, r.items[k])
	}
	return values
}

// Size returns the number of items in the registry
func (r *BaseRegistry[K, V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Common validators for reuse across different registry types

// NotEmptyKeyValidator validates that a string key is not empty
func NotEmptyKeyValidator[V any](keyDesc string) RegistryValidator[string, V] {
	return func(key string, value V, existing map[string]V) error {
		if key == "" {
			return fmt.Errorf("%s cannot be empty", keyDesc)
		}
		return nil
	}
}

// NotNilValueValidator validates that a pointer value is not nil
func NotNilValueValidator[K comparable, V any](valueDesc string) RegistryValidator[K, *V] {
	return func(key K, value *V, existing map[K]*V) error {
		if value == nil {
			return fmt.Errorf("%s cannot be nil", valueDesc)
		}
		return nil
	}
}

// NoDuplicateValidator validates that a key doesn't already exist
func NoDuplicateValidator[K comparable, V any](keyDesc string) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		if _, exists := existing[key]; exists {
			return fmt.Errorf("%s '%v' is already registered", keyDesc, key)
		}
		return nil
	}
}

// ChainValidators combines multiple validators into one
func ChainValidators[K comparable, V any](validators ...RegistryValidator[K, V]) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		for _, validator := range validators {
			if validator != nil {
				if err := validator(key, value, existing); err != nil {
					return err
				}
			}
		}
		return nil
	}
}
