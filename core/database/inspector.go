package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Column is one column of a table. Name and Type are lowercased.
type Column struct {
	Name string
	Type string
}

// Columns lists the columns of table in declaration order through the
// dialect's migrator. A table that does not exist has no columns.
func Columns(db *gorm.DB, table string) ([]Column, error) {
	migrator := db.Migrator()
	if !migrator.HasTable(table) {
		return nil, nil
	}
	types, err := migrator.ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}

	columns := make([]Column, 0, len(types))
	for _, ct := range types {
		columns = append(columns, Column{
			Name: strings.ToLower(ct.Name()),
			Type: strings.ToLower(ct.DatabaseTypeName()),
		})
	}
	return columns, nil
}

// MissingColumns returns the names in want that table lacks, in the order
// given. Every name is missing when the table does not exist.
func MissingColumns(db *gorm.DB, table string, want []string) ([]string, error) {
	columns, err := Columns(db, table)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col.Name] = true
	}

	var missing []string
	for _, name := range want {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
