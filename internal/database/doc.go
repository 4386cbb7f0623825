// Package database provides SQLite-based run history for roipatch.
//
// Each extract run is stored in the runs table together with its full JSON
// report, and every pair of the run gets one row in the pairs table so the
// history command can list outcomes without decoding reports.
//
// The database lives in a single file (roipatch.db) and uses the CGO-free
// modernc.org/sqlite driver.
package database
