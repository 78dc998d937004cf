package mapper

import "database/sql"

// CountToDB converts an optional member count to its column value.
func CountToDB(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// CountFromDB converts a nullable count column back to an optional int.
func CountFromDB(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
