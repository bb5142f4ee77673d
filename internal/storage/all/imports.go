// Package all registers every built-in storage backend ("sqlite",
// "postgres", "mssql") with the storage factory. Import it for its side
// effects from the binary's wiring layer:
//
//	import _ "salesetl/internal/storage/all"
package all

import (
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
