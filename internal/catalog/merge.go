package catalog

import "github.com/lehigh-university-libraries/photocatalog/internal/metadata"

// Change describes what Upsert did.
type Change int

const (
	// Inserted means a new record was appended.
	Inserted Change = iota + 1
	// Updated means an existing record in the same bucket was merged.
	Updated
	// Moved means the record was found in the other bucket and relocated.
	Moved
)

func (c Change) String() string {
	switch c {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// Upsert places fileName in bucket b with metadata md merged in.
//
// Existing non-blank metadata always wins over md. A record for fileName
// held in the other bucket is moved into b, so a file never lives in both
// buckets after an upsert; if the other bucket holds several entries for
// it they are all removed and their metadata merged in order. Within b
// itself only the first matching record is updated and later duplicates
// are left untouched.
func (c *Catalog) Upsert(b Bucket, fileName string, md metadata.Fields) Change {
	target := c.bucket(b)
	other := c.bucket(b.Other())

	displaced, remaining := extract(*other, fileName)
	if len(displaced) == 0 {
		var inserted bool
		*target, inserted = upsertRecord(*target, fileName, md)
		if inserted {
			return Inserted
		}
		return Updated
	}
	*other = remaining

	if indexOf(*target, fileName) < 0 {
		*target = append(*target, Record{
			Header:   displaced[0].Header,
			Image:    fileName,
			Metadata: metadata.Fields{},
		}.Repaired())
	}
	for _, rec := range displaced {
		*target, _ = upsertRecord(*target, fileName, rec.Metadata)
	}
	*target, _ = upsertRecord(*target, fileName, md)
	return Moved
}

// upsertRecord updates the first record whose image is fileName, or
// appends a new one. It reports whether a record was appended.
func upsertRecord(records []Record, fileName string, md metadata.Fields) ([]Record, bool) {
	for i, existing := range records {
		if existing.Image != fileName {
			continue
		}

		header := existing.Header
		if header == "" {
			header = fileName
		}
		records[i] = Record{
			Header:   header,
			Image:    fileName,
			Metadata: metadata.Merge(existing.Metadata, md),
		}
		return records, false
	}

	return append(records, Record{
		Header:   fileName,
		Image:    fileName,
		Metadata: metadata.Merge(metadata.Fields{}, md),
	}), true
}

// extract splits records into those for fileName and the rest.
func extract(records []Record, fileName string) ([]Record, []Record) {
	var matched []Record
	kept := records[:0:0]
	for _, r := range records {
		if r.Image == fileName {
			matched = append(matched, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(matched) == 0 {
		return nil, records
	}
	return matched, kept
}
