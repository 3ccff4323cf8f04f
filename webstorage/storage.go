// Package webstorage provides the key/value scopes that stand in for a
// browser's local persistence. A Storage is one named scope, such as the
// browser-session scope or the durable device scope.
package webstorage

import "context"

// Storage is a single persisted key/value scope.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Clear deletes every key in the scope.
	Clear(ctx context.Context) error
}

// Factory opens scopes by namespace. Opening the same namespace twice
// yields views over the same data.
type Factory interface {
	Open(namespace string) Storage
}
