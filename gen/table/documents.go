// Package table declares the go-jet tables of migrations/. Keep each file
// in step with the schema it mirrors.
package table

import (
	"github.com/go-jet/jet/v2/sqlite"
)

var Documents = newDocumentsTable("", "documents", "")

type documentsTable struct {
	sqlite.Table

	// Columns
	Collection sqlite.ColumnString
	ID         sqlite.ColumnString
	Data       sqlite.ColumnString
	CreatedAt  sqlite.ColumnTimestamp
	UpdatedAt  sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

type DocumentsTable struct {
	documentsTable

	EXCLUDED documentsTable
}

// AS creates new DocumentsTable with assigned alias
func (a DocumentsTable) AS(alias string) *DocumentsTable {
	return newDocumentsTable(a.SchemaName(), a.TableName(), alias)
}

func newDocumentsTable(schemaName, tableName, alias string) *DocumentsTable {
	return &DocumentsTable{
		documentsTable: newDocumentsTableImpl(schemaName, tableName, alias),
		EXCLUDED:       newDocumentsTableImpl("", "excluded", ""),
	}
}

func newDocumentsTableImpl(schemaName, tableName, alias string) documentsTable {
	var (
		CollectionColumn = sqlite.StringColumn("collection")
		IDColumn         = sqlite.StringColumn("id")
		DataColumn       = sqlite.StringColumn("data")
		CreatedAtColumn  = sqlite.TimestampColumn("created_at")
		UpdatedAtColumn  = sqlite.TimestampColumn("updated_at")
		allColumns       = sqlite.ColumnList{CollectionColumn, IDColumn, DataColumn, CreatedAtColumn, UpdatedAtColumn}
		mutableColumns   = sqlite.ColumnList{DataColumn, CreatedAtColumn, UpdatedAtColumn}
	)

	return documentsTable{
		Table: sqlite.NewTable(schemaName, tableName, alias, allColumns...),

		//Columns
		Collection: CollectionColumn,
		ID:         IDColumn,
		Data:       DataColumn,
		CreatedAt:  CreatedAtColumn,
		UpdatedAt:  UpdatedAtColumn,

		AllColumns:     allColumns,
		MutableColumns: mutableColumns,
	}
}
