package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// extractionRunsSchema is inferred from ExtractionRunRow so the table and
// the inserter never drift apart.
func extractionRunsSchema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(ExtractionRunRow{})
	if err != nil {
		return nil, fmt.Errorf("inferring extraction_runs schema: %w", err)
	}
	return schema, nil
}

// EnsureSchema creates the dataset and the extraction_runs table when they
// are missing. Existing tables are left untouched. It returns the names of
// the objects it created.
func (r *BigQueryRunRecorder) EnsureSchema(ctx context.Context) ([]string, error) {
	var created []string

	ds := r.client.Dataset(r.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("EnsureSchema: reading dataset %s: %w", r.dataset, err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return nil, fmt.Errorf("EnsureSchema: creating dataset %s: %w", r.dataset, err)
		}
		created = append(created, r.dataset)
	}

	existing, err := r.listTables(ctx)
	if err != nil {
		return nil, err
	}
	if existing[extractionRunsTable] {
		return created, nil
	}

	schema, err := extractionRunsSchema()
	if err != nil {
		return nil, fmt.Errorf("EnsureSchema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "started_ts",
		},
	}
	if err := ds.Table(extractionRunsTable).Create(ctx, meta); err != nil {
		return nil, fmt.Errorf("EnsureSchema: creating table %s: %w", extractionRunsTable, err)
	}
	created = append(created, r.dataset+"."+extractionRunsTable)
	return created, nil
}

func (r *BigQueryRunRecorder) listTables(ctx context.Context) (map[string]bool, error) {
	tables := make(map[string]bool)
	it := r.client.Dataset(r.dataset).Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing tables in %s: %w", r.dataset, err)
		}
		tables[t.TableID] = true
	}
	return tables, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
