// Package cache provides the read-through cache used for customer
// lookups. Customers are immutable after creation, so cached entries
// never need invalidation.
package cache

type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
