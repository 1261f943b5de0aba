package sqlite

var BuildSelect = buildSelect
