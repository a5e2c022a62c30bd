// Package sqlitevac rewrites SQLite databases so that deleted rows do not
// survive in free pages.
package sqlitevac

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"
)

// Vacuum enables secure_delete on path and rebuilds it with VACUUM. It
// refuses to create a database that does not exist.
func Vacuum(ctx context.Context, path string) error {
	before, err := os.Stat(path)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	// PRAGMA is per connection; pin one for both statements.
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", path, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA secure_delete = ON"); err != nil {
		return fmt.Errorf("secure_delete %s: %w", path, err)
	}
	if _, err := conn.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum %s: %w", path, err)
	}

	if after, err := os.Stat(path); err == nil {
		slog.Info("vacuumed", "path", path, "before", before.Size(), "after", after.Size())
	}
	return nil
}
