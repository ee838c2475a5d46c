// Package enrich turns raw records into indexable documents by prefixing
// selected metadata fields, so entity names present only in metadata
// (author, date) become lexically and semantically searchable.
package enrich

import (
	"fmt"
	"strings"

	"github.com/aurora-hq/aurora/internal/domain"
)

// Enricher renders an ordered set of metadata fields in front of the raw
// text. It is a pure function of the record: same record in, same
// document out.
type Enricher struct {
	fields []string
}

// New creates an Enricher for the given metadata field order.
func New(fields []string) *Enricher {
	return &Enricher{fields: fields}
}

// Enrich derives the indexable document for one record. A missing
// metadata field is a configuration error and fails the whole load.
func (e *Enricher) Enrich(rec domain.Record) (domain.EnrichedDocument, error) {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		v, ok := rec.Metadata[f]
		if !ok {
			return domain.EnrichedDocument{}, fmt.Errorf(
				"record %s: %w: %s", rec.ID, domain.ErrMissingMetadata, f)
		}
		parts = append(parts, v)
	}

	text := rec.Text
	if len(parts) > 0 {
		text = strings.Join(parts, " ") + ": " + rec.Text
	}

	return domain.EnrichedDocument{ID: rec.ID, Text: text}, nil
}

// EnrichAll enriches every record, failing fast on the first bad one.
func (e *Enricher) EnrichAll(recs []domain.Record) ([]domain.EnrichedDocument, error) {
	docs := make([]domain.EnrichedDocument, len(recs))
	for i, rec := range recs {
		doc, err := e.Enrich(rec)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}
