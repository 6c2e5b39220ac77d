//go:build purego

package store

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func dsn(path string) string {
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
