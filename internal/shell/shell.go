// Package shell is a small interactive object browser for an open
// ObjectLite database, adapted from the teacher's internal/repl package:
// the same scan-a-line/dispatch/print loop, with the SQL command set
// replaced by ObjectLite's at_address and object-construction primitives
// (ObjectLite has no query language; spec.md scopes that out).
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/objectlite/objectlite/internal/object"
	"github.com/objectlite/objectlite/internal/platform"
	"github.com/objectlite/objectlite/internal/session"
)

// Start runs the read-eval-print loop against sess until the input stream
// closes or the user types "exit"/"\q", writing output to out.
func Start(in io.Reader, out io.Writer, sess *session.Session) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "objectlite shell. Type 'exit' or '\\q' to quit, 'help' for commands.")

	for {
		fmt.Fprint(out, "obl> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "\\q" {
			return
		}

		if err := dispatch(out, sess, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatch(out io.Writer, sess *session.Session, line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		printHelp(out)
		return nil
	case "at":
		return cmdAt(out, sess, args)
	case "int":
		return cmdInt(out, sess, args)
	case "str":
		return cmdStr(out, sess, args)
	case "begin":
		_, err := sess.Begin()
		if err == nil {
			fmt.Fprintln(out, "transaction started")
		}
		return err
	case "commit":
		if err := sess.Commit(); err != nil {
			return err
		}
		fmt.Fprintln(out, "committed")
		return nil
	case "abort":
		sess.Abort()
		fmt.Fprintln(out, "aborted")
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  at <la> [depth]   resolve a logical address")
	fmt.Fprintln(out, "  int <value>       create a new INTEGER object")
	fmt.Fprintln(out, "  str <text>        create a new STRING object")
	fmt.Fprintln(out, "  begin             open a transaction")
	fmt.Fprintln(out, "  commit            commit the open transaction")
	fmt.Fprintln(out, "  abort             discard the open transaction")
	fmt.Fprintln(out, "  exit, \\q          quit")
}

func cmdAt(out io.Writer, sess *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: at <la> [depth]")
	}
	la, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid logical address %q: %w", args[0], err)
	}

	var obj *object.Object
	if len(args) >= 2 {
		depth, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid depth %q: %w", args[1], err)
		}
		obj, err = sess.AtAddressDepth(object.LA(la), depth)
		if err != nil {
			return err
		}
	} else {
		obj, err = sess.AtAddress(object.LA(la))
		if err != nil {
			return err
		}
	}
	printObject(out, obj)
	return nil
}

func cmdInt(out io.Writer, sess *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: int <value>")
	}
	v, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", args[0], err)
	}
	obj, err := sess.NewInteger(int32(v))
	if err != nil {
		return err
	}
	printObject(out, obj)
	return nil
}

func cmdStr(out io.Writer, sess *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: str <text>")
	}
	obj, err := sess.NewString(strings.Join(args, " "))
	if err != nil {
		return err
	}
	printObject(out, obj)
	return nil
}

// printObject renders an object's address and value as a two-column table,
// the same tabwriter-based layout the teacher uses for query result sets.
func printObject(out io.Writer, o *object.Object) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "la\t%d\n", o.LA)
	fmt.Fprintf(tw, "pa\t%d\n", o.PA)
	fmt.Fprintf(tw, "tag\t%s\n", object.StorageTag(o))
	fmt.Fprintf(tw, "value\t%s\n", describeValue(o))
	tw.Flush()
}

func describeValue(o *object.Object) string {
	switch v := o.Storage.(type) {
	case object.IntegerStorage:
		return strconv.FormatInt(int64(v.Value), 10)
	case object.BooleanStorage:
		return strconv.FormatBool(v.Value != 0)
	case object.StringStorage:
		s, err := platform.DecodeUTF16(v.Units)
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return strconv.Quote(s)
	case object.FixedStorage:
		return fmt.Sprintf("fixed[%d]", len(v.Elements))
	case object.SlottedStorage:
		return fmt.Sprintf("slotted[%d]", len(v.Slots))
	case object.NilStorage:
		return "nil"
	default:
		return "<opaque>"
	}
}
