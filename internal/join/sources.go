package join

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	_ "modernc.org/sqlite"

	"github.com/citymetrics/choromap/internal/feature"
)

// ReadCSV loads an attribute table from a CSV file. The first record is the
// header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "join: open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are tolerated; Apply bounds-checks

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "join: parse CSV %s", path)
	}
	if len(records) < 2 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "join: %s has no data rows", path)
	}

	return &Table{Columns: records[0], Records: records[1:]}, nil
}

// ReadXLSX loads an attribute table from the named sheet of an XLSX file,
// or the first sheet when sheet is empty. The first row is the header.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "join: open xlsx %s", path)
	}

	var sh *xlsx.Sheet
	if sheet != "" {
		var ok bool
		sh, ok = f.Sheet[sheet]
		if !ok {
			return nil, eris.Errorf("join: sheet %q not found in %s", sheet, path)
		}
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("join: %s has no sheets", path)
		}
		sh = f.Sheets[0]
	}

	var rows [][]string
	for _, row := range sh.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	if len(rows) < 2 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "join: %s has no data rows", path)
	}

	return &Table{Columns: rows[0], Records: rows[1:]}, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ReadSQLite loads an attribute table from a SQLite database table.
func ReadSQLite(ctx context.Context, path, table string) (*Table, error) {
	if !identRe.MatchString(table) {
		return nil, eris.Errorf("join: invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "join: open sqlite %s", path)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return nil, eris.Wrapf(err, "join: query table %s", table)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "join: read columns")
	}

	var records [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "join: scan row")
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			if v.Valid {
				rec[i] = v.String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "join: iterate rows")
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "join: table %s is empty", table)
	}

	return &Table{Columns: cols, Records: records}, nil
}
