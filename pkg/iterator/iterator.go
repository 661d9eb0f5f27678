package iterator

// Iterator walks key/value pairs in ascending key order.
type Iterator interface {
	// First moves to the smallest key.
	First()
	// Seek moves the iterator to the first key >= target.
	Seek(target string)
	// Next advances to the next key.
	Next()
	// Valid reports whether the iterator points to a valid entry.
	Valid() bool
	Key() string
	Value() string
	// Close releases resources.
	Close() error
}
