package testsupport

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens an isolated shared-cache in-memory database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
}
