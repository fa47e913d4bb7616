// Command obl is ObjectLite's command-line driver, grounded on the
// teacher's cmd/rdbms/main.go bootstrap sequence (flag parsing, logger
// setup, open-then-run, an optional interactive mode) with the SQL
// engine/server pair replaced by the kernel's own session/transaction
// API — ObjectLite has no query language or network protocol of its own.
package main

import (
	"log/slog"
	"os"

	"github.com/objectlite/objectlite/internal/database"
	"github.com/objectlite/objectlite/internal/diag"
	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/oblog"
	"github.com/objectlite/objectlite/internal/session"
	"github.com/objectlite/objectlite/internal/shell"

	"flag"
)

func main() {
	path := flag.String("file", "objectlite.obl", "database file to open or create")
	create := flag.Bool("create", true, "create the file if it does not exist")
	logLevel := flag.String("log-level", "info", "default|debug|info|notice|warn|error|none")
	logFile := flag.String("log-file", "", "log file path (stderr if empty)")
	interactive := flag.Bool("shell", false, "drop into the interactive object shell after startup")
	flag.Parse()

	opts := database.Options{
		Filename:      *path,
		LogLevel:      oblog.ParseLevel(*logLevel),
		LogFile:       *logFile,
		AllowCreation: *create,
		Observers:     []diag.Observer{diag.NewLoggingObserver(nil)},
	}

	db, err := database.Open(opts)
	if err != nil {
		slog.Error("failed to open database", "file", *path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.Logger().Info("database ready", "file", *path)

	sess := session.New(db)
	defer sess.Close()

	if err := seedSample(sess); err != nil {
		db.Logger().Error("sample session failed", "error", err)
		os.Exit(1)
	}

	if *interactive {
		shell.Start(os.Stdin, os.Stdout, sess)
	}
}

// seedSample exercises the kernel from the outside: a session creates an
// integer and a string, links them with the true and nil singletons into a
// FIXED tuple, commits, and logs the three new logical addresses, run for
// real against whatever file was opened.
func seedSample(sess *session.Session) error {
	n, err := sess.NewInteger(42)
	if err != nil {
		return err
	}
	s, err := sess.NewString("objectlite")
	if err != nil {
		return err
	}
	f, err := sess.NewFixed([]*object.Object{n, s, sess.True(), sess.Nil()})
	if err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	slog.Info("sample objects committed",
		"integer_la", n.LA,
		"string_la", s.LA,
		"fixed_la", f.LA,
	)
	return nil
}
