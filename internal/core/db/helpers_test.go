package db

// hasColumn reports whether table has a column named column (test helper).
func (db *DB) hasColumn(table, column string) (bool, error) {
	rows, err := db.conn.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
