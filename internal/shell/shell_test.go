package shell

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/objectlite/objectlite/internal/database"
	"github.com/objectlite/objectlite/internal/session"
)

func TestMain_ShellRoundTrip(t *testing.T) {
	database.Startup()
	defer database.Shutdown()

	path := filepath.Join(t.TempDir(), "shell.obl")
	db, err := database.Create(database.Options{Filename: path, LogLevel: database.LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()
	sess := session.New(db)

	script := "int 42\nstr hello world\nbegin\ncommit\nexit\n"
	var out bytes.Buffer
	Start(strings.NewReader(script), &out, sess)

	got := out.String()
	if !strings.Contains(got, "value  42") {
		t.Fatalf("output missing integer value:\n%s", got)
	}
	if !strings.Contains(got, `"hello world"`) {
		t.Fatalf("output missing string value:\n%s", got)
	}
	if !strings.Contains(got, "committed") {
		t.Fatalf("output missing commit confirmation:\n%s", got)
	}
}

func TestUnknownCommandReportsError(t *testing.T) {
	database.Startup()
	defer database.Shutdown()

	path := filepath.Join(t.TempDir(), "shell2.obl")
	db, err := database.Create(database.Options{Filename: path, LogLevel: database.LogNone})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer db.Close()
	sess := session.New(db)

	var out bytes.Buffer
	Start(strings.NewReader("bogus\nexit\n"), &out, sess)
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected unknown-command error, got:\n%s", out.String())
	}
}
