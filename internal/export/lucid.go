// File path: internal/export/lucid.go
package export

import (
	"strconv"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/extract"
)

// Header is the column schema the diagramming import expects.
var Header = []string{
	"dbms", "TABLE_SCHEMA", "TABLE_NAME", "COLUMN_NAME",
	"ORDINAL_POSITION", "DATA_TYPE", "CHARACTER_MAXIMUM_LENGTH",
	"CONSTRAINT_TYPE", "REFERENCED_TABLE_SCHEMA", "REFERENCED_TABLE_NAME",
	"REFERENCED_COLUMN_NAME", "COMMENT",
}

const (
	engineTag    = "mysql"
	schemaName   = "dbo"
	idColumnName = "Id"
)

// Row is one denormalized export record.
type Row struct {
	DBMS                  string
	TableSchema           string
	TableName             string
	ColumnName            string
	OrdinalPosition       int
	DataType              string
	ColumnLength          string
	ConstraintType        string
	ReferencedTableSchema string
	ReferencedTableName   string
	ReferencedColumnName  string
	Comment               string
}

// Record renders the row as CSV cells in Header order.
func (r Row) Record() []string {
	return []string{
		r.DBMS, r.TableSchema, r.TableName, r.ColumnName,
		strconv.Itoa(r.OrdinalPosition), r.DataType, r.ColumnLength,
		r.ConstraintType, r.ReferencedTableSchema, r.ReferencedTableName,
		r.ReferencedColumnName, r.Comment,
	}
}

type typeMapping struct {
	dataType   string
	constraint string
	length     string
}

var typeMappings = map[string]typeMapping{
	"id":        {"INT", "Primary Key", "11"},
	"reference": {"INT", "Foreign Key", "11"},
	"int":       {"INT", "", "11"},
	"boolean":   {"INT", "", "1"},
	"datetime":  {"DATETIME", "", ""},
	"date":      {"DATE", "", ""},
	"percent":   {"FLOAT", "", "18"},
	"string":    {"TEXT", "", ""},
	"textarea":  {"TEXT", "", ""},
	"json":      {"TEXT", "", ""},
}

var defaultMapping = typeMapping{"VARCHAR", "", "255"}

// MapDataType maps a source field type onto the target database type,
// constraint, and column length. Unlisted types fall back to VARCHAR(255).
func MapDataType(fieldType string) (dataType, constraint, length string) {
	mapping, ok := typeMappings[fieldType]
	if !ok {
		mapping = defaultMapping
	}
	return mapping.dataType, mapping.constraint, mapping.length
}

// FromRows converts normalized metadata rows into export rows.
func FromRows(rows []extract.MetadataRow) []Row {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Object, row.Field, row.Type, row.Length,
			row.Precision, row.Scale, row.ReferenceTo, row.RelationshipName,
		})
	}
	return FromRecords(records)
}

// FromRecords converts raw normalized CSV records (header excluded) into
// export rows. Records with fewer than 8 cells are silently skipped.
//
// Ordinal positions reset to 1 whenever the table name changes from the
// immediately preceding record, so rows for one table must already be
// contiguous; the extraction pipeline guarantees that by describing one
// object fully before moving to the next.
func FromRecords(records [][]string) []Row {
	rows := make([]Row, 0, len(records))
	position := 0
	lastTable := ""
	for _, record := range records {
		if len(record) < 8 {
			continue
		}
		table, column, fieldType, referenceTo := record[0], record[1], record[2], record[6]
		if table != lastTable {
			lastTable = table
			position = 0
		}
		position++

		dataType, constraint, length := MapDataType(fieldType)
		referencedColumn := ""
		if constraint == "Foreign Key" {
			referencedColumn = idColumnName
		}
		// Polymorphic references keep only the last target.
		targets := strings.Split(referenceTo, ",")
		referencedTable := targets[0]
		if len(targets) > 1 {
			referencedTable = targets[len(targets)-1]
		}

		rows = append(rows, Row{
			DBMS:                  engineTag,
			TableSchema:           schemaName,
			TableName:             table,
			ColumnName:            column,
			OrdinalPosition:       position,
			DataType:              dataType,
			ColumnLength:          length,
			ConstraintType:        constraint,
			ReferencedTableSchema: schemaName,
			ReferencedTableName:   referencedTable,
			ReferencedColumnName:  referencedColumn,
		})
	}
	return rows
}
