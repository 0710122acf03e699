package models

// QueryType names the read operations a backend serves. It labels metrics
// and prefixes cache keys so different operations never share an entry.
type QueryType string

const (
	QueryTypeRows     QueryType = "rows"
	QueryTypeCount    QueryType = "count"
	QueryTypeDistinct QueryType = "distinct"
	QueryTypeTable    QueryType = "table"
)
