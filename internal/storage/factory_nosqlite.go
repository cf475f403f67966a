//go:build !sqlite

package storage

import "errors"

func newSQLiteStore(string) (Store, error) {
	return nil, errors.New("sqlite journal requires a build with -tags sqlite")
}
