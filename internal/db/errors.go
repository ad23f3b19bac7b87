package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// ErrCommitConflict indicates a production commit raced another writer on the
// same items. CommitProduction retries it before giving up.
var ErrCommitConflict = errors.New("commit conflicted with a concurrent write")

// unknownItemsMarker prefixes the error thrown inside the commit transaction
// when some item IDs have no record.
const unknownItemsMarker = "unknown catalog items"

// wrapQueryError maps SurrealDB statement errors onto the catalog sentinels.
// A failed transaction reports one error per statement, so every message is inspected.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	for _, msg := range queryMessages(err) {
		switch {
		case strings.Contains(msg, unknownItemsMarker):
			return fmt.Errorf("%w: %s", models.ErrUnknownItem, msg)
		case strings.Contains(msg, "production") && strings.Contains(msg, "already exists"):
			return fmt.Errorf("%w: %s", models.ErrProductionExists, msg)
		case strings.Contains(msg, "Transaction conflict"), strings.Contains(msg, "can be retried"):
			return fmt.Errorf("%w: %s", ErrCommitConflict, msg)
		}
	}
	return err
}

// queryMessages collects the messages of every QueryError in err's tree.
func queryMessages(err error) []string {
	var msgs []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if qe, ok := e.(*surrealdb.QueryError); ok {
			msgs = append(msgs, qe.Message)
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return msgs
}
