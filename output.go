package slugs

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetEntry struct {
	ID    int64  `parquet:"name=id, type=INT_64"`
	Kind  string `parquet:"name=kind, type=UTF8"`
	Name  string `parquet:"name=name, type=UTF8"`
	Email string `parquet:"name=email, type=UTF8"`
	Slug  string `parquet:"name=slug, type=UTF8"`
}

// WriteToParquet saves the schedule with the slugs to a parquet file.
func (s Schedule) WriteToParquet(path string) (err error) {
	pf, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		errClose := pf.Close()
		if err == nil {
			err = errClose
		}
		if err != nil {
			logrus.Errorf("failed to store the slugs to %s: %v", path, err)
		}
	}()

	pw, err := writer.NewParquetWriter(pf, new(parquetEntry), int64(runtime.NumCPU()))
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	s.ForEach(func(id int64, e *Entry) bool {
		err = pw.Write(parquetEntry{e.ID, string(e.Kind), e.Name, e.Email, e.Slug})
		return err != nil
	})
	if err != nil {
		return err
	}
	return pw.WriteStop()
}

// ReadFromParquet loads a schedule previously saved with WriteToParquet.
func ReadFromParquet(path string) (result Schedule, err error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		errClose := fr.Close()
		if err == nil {
			err = errClose
		}
	}()

	pr, err := reader.NewParquetReader(fr, new(parquetEntry), int64(runtime.NumCPU()))
	if err != nil {
		return nil, err
	}
	rows := make([]parquetEntry, int(pr.GetNumRows()))
	if err = pr.Read(&rows); err != nil {
		return nil, err
	}
	pr.ReadStop()

	result = make(Schedule, len(rows))
	for _, row := range rows {
		kind, err := parseKind(row.Kind)
		if err != nil {
			return nil, err
		}
		if _, exists := result[row.ID]; exists {
			return nil, fmt.Errorf("duplicate entry id %d in %s", row.ID, path)
		}
		result[row.ID] = &Entry{
			ID: row.ID, Kind: kind, Name: row.Name, Email: row.Email, Slug: row.Slug}
	}
	return result, nil
}

const existsTableSQL = `
SELECT EXISTS (
	SELECT 1
	FROM   information_schema.tables
	WHERE  table_name = $1
);
`
const createTableSQL = `
CREATE TABLE %s (
	id bigint NOT NULL,
	kind text NOT NULL,
	name text NOT NULL,
	email text NOT NULL,
	slug text NOT NULL
);
`

var postgresColumns = []string{"id", "kind", "name", "email", "slug"}

// WriteToPostgres saves the schedule with the slugs to a new Postgres table.
func (s Schedule) WriteToPostgres(ctx context.Context, connString, table string) (err error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return err
	}
	defer func() {
		errClose := conn.Close(ctx)
		if err == nil {
			err = errClose
		}
	}()

	var exists bool
	if err = conn.QueryRow(ctx, existsTableSQL, table).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("table %s already exists in the database", table)
	}
	ident := pgx.Identifier{table}
	if _, err = conn.Exec(ctx, fmt.Sprintf(createTableSQL, ident.Sanitize())); err != nil {
		return err
	}

	n, err := conn.CopyFrom(ctx, ident, postgresColumns, pgx.CopyFromRows(s.rows()))
	if err != nil {
		logrus.Errorf("postgres write error for table %s", table)
		return err
	}
	if n != int64(len(s)) {
		return fmt.Errorf("postgres copied %d rows out of %d", n, len(s))
	}
	return nil
}

// rows lists the entries in the column order of the output tables.
func (s Schedule) rows() [][]interface{} {
	values := make([][]interface{}, 0, len(s))
	s.ForEach(func(id int64, e *Entry) bool {
		values = append(values, []interface{}{e.ID, string(e.Kind), e.Name, e.Email, e.Slug})
		return false
	})
	return values
}
