package school

import (
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/pkg/errors"
)

type indexedRecord struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// Filter returns the records matching the bleve query string (e.g.
// "kindergarten" or "+name:academy"), searched over the name and snippet
// fields. Matches keep their original order. An empty query matches
// everything.
func Filter(records []Record, query string) ([]Record, error) {
	if strings.TrimSpace(query) == "" {
		return records, nil
	}

	index, err := bleve.NewMemOnly(newRecordMapping())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer index.Close()

	batch := index.NewBatch()
	for i, r := range records {
		if err := batch.Index(strconv.Itoa(i), indexedRecord{Name: r.Name, Snippet: r.Snippet}); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err := index.Batch(batch); err != nil {
		return nil, errors.WithStack(err)
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewQueryStringQuery(query))
	searchRequest.Size = len(records)

	searchResults, err := index.Search(searchRequest)
	if err != nil {
		return nil, errors.Wrapf(err, "could not execute query '%s'", query)
	}

	matched := make(map[int]struct{}, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		position, err := strconv.Atoi(hit.ID)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		matched[position] = struct{}{}
	}

	filtered := make([]Record, 0, len(matched))
	for i, r := range records {
		if _, exists := matched[i]; exists {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

func newRecordMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	snippetFieldMapping := bleve.NewTextFieldMapping()
	snippetFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("snippet", snippetFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
