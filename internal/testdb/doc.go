//go:build integration

// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests obtain a migrated connection with GetTestDBWithT and run each case
// inside WithTx, which rolls the transaction back when the case finishes so
// tests never see each other's rows:
//
//	func TestSomething(t *testing.T) {
//	    if testdb.ShouldSkipDatabaseTest() {
//	        t.Skip("DATABASE_URL not set - skipping integration test")
//	    }
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        taskStore := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
//
// The connection string comes from DATABASE_URL, falling back to
// TODO_TEST_DB_URL.
package testdb
