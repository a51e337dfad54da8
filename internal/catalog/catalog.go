// Package catalog holds the gallery catalog: two orientation buckets of
// records keyed by image file name, loaded from and written back to JSON.
package catalog

import "github.com/lehigh-university-libraries/photocatalog/internal/metadata"

// Bucket names one of the two top-level catalog partitions.
type Bucket string

const (
	Portraits  Bucket = "Portraits"
	Landscapes Bucket = "Landscapes"
)

// Buckets lists the partitions in serialization order.
var Buckets = []Bucket{Portraits, Landscapes}

// Other returns the opposite bucket.
func (b Bucket) Other() Bucket {
	if b == Portraits {
		return Landscapes
	}
	return Portraits
}

// Record is one gallery entry.
type Record struct {
	Header   string          `json:"header"`
	Image    string          `json:"image"`
	Metadata metadata.Fields `json:"metadata"`
}

// Catalog is the in-memory form of the persisted gallery JSON.
type Catalog struct {
	Portraits  []Record `json:"Portraits"`
	Landscapes []Record `json:"Landscapes"`
}

// New returns a catalog with both buckets empty.
func New() *Catalog {
	return &Catalog{
		Portraits:  []Record{},
		Landscapes: []Record{},
	}
}

// Records returns the records of bucket b.
func (c *Catalog) Records(b Bucket) []Record {
	return *c.bucket(b)
}

func (c *Catalog) bucket(b Bucket) *[]Record {
	if b == Portraits {
		return &c.Portraits
	}
	return &c.Landscapes
}

// Len is the total number of records across both buckets.
func (c *Catalog) Len() int {
	return len(c.Portraits) + len(c.Landscapes)
}

func indexOf(records []Record, fileName string) int {
	for i, r := range records {
		if r.Image == fileName {
			return i
		}
	}
	return -1
}
