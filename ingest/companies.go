/*
Package ingest loads the company list export into the company collection.
*/
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const companyBatchSize = 1000

// Columns read from the export. Every other column is only kept in the raw
// row.
const (
	columnICP       = "ICP"
	columnCompany   = "Company"
	columnWebsite   = "Website"
	columnScore     = "Score"
	columnReasoning = "Reasoning"
	columnNotes     = "Notes"
)

// ErrSourceNotFound is returned when the export file does not exist.
var ErrSourceNotFound = errors.New("company export not found")

// ImportCompanies imports the CSV export at path and records the result as
// the last company import. A positive limit stops the import after that many rows.
func ImportCompanies(ctx context.Context, env scout.Environment, path string, limit int) (model.ImportResult, error) {
	res, err := ImportCompaniesCSV(ctx, env, path, limit)
	if err != nil {
		return res, errors.WithStack(err)
	}

	if err = model.SaveImportRun(ctx, env, res); err != nil {
		return res, errors.Wrap(err, "problem recording company import")
	}

	return res, nil
}

// ImportCompaniesCSV inserts the rows of the export that are not yet known.
// Rows without a name and website are skipped, as are rows whose normalized
// website was seen before, in the database or earlier in the file.
func ImportCompaniesCSV(ctx context.Context, env scout.Environment, path string, limit int) (model.ImportResult, error) {
	res := model.ImportResult{Path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return res, errors.Wrap(ErrSourceNotFound, path)
	}
	if err != nil {
		return res, errors.Wrapf(err, "problem reading '%s'", path)
	}

	known, err := model.KnownWebsites(ctx, env)
	if err != nil {
		return res, errors.WithStack(err)
	}

	text, charset := util.DecodeText(data, true)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return res, errors.Wrapf(err, "problem reading header of '%s'", path)
	}

	batch := make([]model.Company, 0, companyBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := model.InsertCompanies(ctx, env, batch); err != nil {
			return errors.WithStack(err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err = ctx.Err(); err != nil {
			return res, errors.WithStack(err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, errors.Wrapf(err, "problem reading row %d of '%s'", res.TotalRows+1, path)
		}
		res.TotalRows++
		// the row past the limit is read and counted, but not imported
		if limit > 0 && res.TotalRows > limit {
			break
		}

		row := rowMap(header, record)
		name := strings.TrimSpace(row[columnCompany])
		website := model.NormalizeWebsite(row[columnWebsite])

		if name == "" && website == "" {
			res.Skipped++
			continue
		}
		if website != "" && known[website] {
			res.Skipped++
			continue
		}

		c := model.Company{
			ICP:       strings.TrimSpace(row[columnICP]),
			Name:      name,
			Score:     strings.TrimSpace(row[columnScore]),
			Reasoning: strings.TrimSpace(row[columnReasoning]),
			Notes:     strings.TrimSpace(row[columnNotes]),
			Raw:       row,
		}
		if website != "" {
			c.Website = &website
			known[website] = true
		}
		batch = append(batch, c)
		res.Inserted++

		if len(batch) >= companyBatchSize {
			if err = flush(); err != nil {
				return res, err
			}
		}
	}

	if err = flush(); err != nil {
		return res, err
	}

	grip.Info(message.Fields{
		"message":  "imported companies",
		"path":     path,
		"charset":  charset,
		"total":    res.TotalRows,
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
	})

	return res, nil
}

// rowMap pairs the header with the record. Missing trailing fields are
// empty; fields beyond the header are dropped.
func rowMap(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for idx, key := range header {
		if idx < len(record) {
			row[key] = record[idx]
		} else {
			row[key] = ""
		}
	}
	return row
}
