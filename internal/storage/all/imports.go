// Package all wires every built-in storage backend into the storage factory.
//
// It exists purely for side effects: a blank import runs each backend's init
// function, which registers its factory with the storage package. Importing
// this package makes the "mysql", "postgres", and "sqlite" kinds available at
// runtime. Binaries wanting a subset can blank-import individual backends
// instead.
package all

import (
	_ "cdcetl/internal/storage/mysql"
	_ "cdcetl/internal/storage/postgres"
	_ "cdcetl/internal/storage/sqlite"
)
