// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embedded directory) and
// must be named {version}_{description}.sql, for example
// "001_initial_schema.sql". Applied versions are tracked in a
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
