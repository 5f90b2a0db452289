// Package sqlxrepos implements the core repositories over Postgres via sqlx.
package sqlxrepos

import "strconv"

func itoa(i int) string { return strconv.Itoa(i) }
