package repositories

import "database/sql"

// requireRowAffected превращает UPDATE/DELETE без затронутых строк в
// переданную ошибку "не найдено".
func requireRowAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
