package table

import (
	"github.com/go-jet/jet/v2/sqlite"
)

var Kv = newKvTable("", "kv", "")

type kvTable struct {
	sqlite.Table

	// Columns
	Key       sqlite.ColumnString
	Value     sqlite.ColumnString
	UpdatedAt sqlite.ColumnTimestamp

	AllColumns     sqlite.ColumnList
	MutableColumns sqlite.ColumnList
}

type KvTable struct {
	kvTable

	EXCLUDED kvTable
}

// AS creates new KvTable with assigned alias
func (a KvTable) AS(alias string) *KvTable {
	return newKvTable(a.SchemaName(), a.TableName(), alias)
}

func newKvTable(schemaName, tableName, alias string) *KvTable {
	return &KvTable{
		kvTable:  newKvTableImpl(schemaName, tableName, alias),
		EXCLUDED: newKvTableImpl("", "excluded", ""),
	}
}

func newKvTableImpl(schemaName, tableName, alias string) kvTable {
	var (
		KeyColumn       = sqlite.StringColumn("key")
		ValueColumn     = sqlite.StringColumn("value")
		UpdatedAtColumn = sqlite.TimestampColumn("updated_at")
		allColumns      = sqlite.ColumnList{KeyColumn, ValueColumn, UpdatedAtColumn}
		mutableColumns  = sqlite.ColumnList{ValueColumn, UpdatedAtColumn}
	)

	return kvTable{
		Table: sqlite.NewTable(schemaName, tableName, alias, allColumns...),

		//Columns
		Key:       KeyColumn,
		Value:     ValueColumn,
		UpdatedAt: UpdatedAtColumn,

		AllColumns:     allColumns,
		MutableColumns: mutableColumns,
	}
}
