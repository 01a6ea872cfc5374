package filter

import "fmt"

const (
	DefaultNumberOfBuckets           = 256
	DefaultNumberOfBucketsPerElement = 3
)

// Configuration describes the shape of a filter and the elements it is seeded with.
// Filters that will be diffed against each other must agree on NumberOfBuckets,
// NumberOfBucketsPerElement and Identity.
type Configuration[E any] struct {
	Elements                  []E
	NumberOfBuckets           int // n, size of the bucket array
	NumberOfBucketsPerElement int // k, fan-out of the mapping
	Identity                  Identity[E]
}

// WithDefaults fills zero counts with the package defaults.
func (c Configuration[E]) WithDefaults() Configuration[E] {
	if c.NumberOfBuckets == 0 {
		c.NumberOfBuckets = DefaultNumberOfBuckets
	}
	if c.NumberOfBucketsPerElement == 0 {
		c.NumberOfBucketsPerElement = DefaultNumberOfBucketsPerElement
	}
	return c
}

func (c Configuration[E]) Validate() error {
	if c.NumberOfBuckets <= 0 {
		return fmt.Errorf("%w: numberOfBuckets must be positive, got %d", ErrInvalidConfiguration, c.NumberOfBuckets)
	}
	if c.NumberOfBucketsPerElement <= 0 {
		return fmt.Errorf("%w: numberOfBucketsPerElement must be positive, got %d", ErrInvalidConfiguration, c.NumberOfBucketsPerElement)
	}
	if c.NumberOfBucketsPerElement > c.NumberOfBuckets {
		return fmt.Errorf("%w: numberOfBucketsPerElement %d exceeds numberOfBuckets %d",
			ErrInvalidConfiguration, c.NumberOfBucketsPerElement, c.NumberOfBuckets)
	}
	if c.Identity == nil {
		return fmt.Errorf("%w: identity function is required", ErrInvalidConfiguration)
	}
	return nil
}

// Prepare applies defaults, validates and copies the element slice so the
// caller can't change the configuration after construction. Elements are a
// set: entries with the same identity digest are kept once, first seen wins.
func (c Configuration[E]) Prepare() (Configuration[E], Mapper, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Configuration[E]{}, Mapper{}, err
	}
	c.Elements = distinct(c.Elements, c.Identity)
	m, err := NewMapper(c.NumberOfBucketsPerElement, c.NumberOfBuckets, DefaultHasher())
	if err != nil {
		return Configuration[E]{}, Mapper{}, err
	}
	return c, m, nil
}

// Shape returns the configuration's shape with no seed elements.
func (c Configuration[E]) Shape() Configuration[E] {
	c.Elements = nil
	return c
}

func distinct[E any](elements []E, identity Identity[E]) []E {
	out := make([]E, 0, len(elements))
	seen := make(map[uint64]struct{}, len(elements))
	for _, e := range elements {
		d := identity(e)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, e)
	}
	return out
}
