// Package postgres implements the repositories of the service on top of sqlx and the pgx driver.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

type dayCountDB struct {
	Day   time.Time `db:"day"`
	Count int64     `db:"count"`
}

type keyCountDB struct {
	Key   string `db:"key"`
	Count int64  `db:"count"`
}

func toDayCounts(rows []dayCountDB) []entity.DayCount {
	out := make([]entity.DayCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.DayCount{Day: r.Day, Count: r.Count})
	}
	return out
}

func toKeyCounts(rows []keyCountDB) []entity.KeyCount {
	out := make([]entity.KeyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.KeyCount{Key: r.Key, Count: r.Count})
	}
	return out
}

// visitQueries builds the aggregation queries over an append-only visit table.
type visitQueries struct {
	total     string
	byDay     string
	byCountry string
}

func newVisitQueries(table, fkColumn, timeColumn string) visitQueries {
	return visitQueries{
		total: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table, fkColumn),
		byDay: fmt.Sprintf(`SELECT date_trunc('day', %[3]s AT TIME ZONE 'UTC') AS day, COUNT(*) AS count FROM %[1]s
WHERE %[2]s = $1 AND %[3]s >= $2 GROUP BY day ORDER BY day`, table, fkColumn, timeColumn),
		byCountry: fmt.Sprintf(`SELECT country AS key, COUNT(*) AS count FROM %[1]s
WHERE %[2]s = $1 AND %[3]s >= $2 GROUP BY country ORDER BY count DESC, key`, table, fkColumn, timeColumn),
	}
}
