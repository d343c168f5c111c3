// Command inkwellctl exports and restores backup archives directly against the
// configured database, without going through the web server.
//
//	inkwellctl export -o backup.zip
//	inkwellctl restore -i backup.zip
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"inkwell/internal/backup"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/store"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "inkwellctl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: inkwellctl export|restore [flags]")

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	switch args[0] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		out := fs.String("o", "", "archive to write (default stdout)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		st, err := open(cfg)
		if err != nil {
			return err
		}
		return exportTo(ctx, st, *out, stdout)

	case "restore":
		fs := flag.NewFlagSet("restore", flag.ContinueOnError)
		in := fs.String("i", "", "archive to restore")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *in == "" {
			return errors.New("restore: -i is required")
		}
		st, err := open(cfg)
		if err != nil {
			return err
		}
		sum, err := restoreFrom(ctx, st, *in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "restored %d posts, %d pages, %d tags, %d users, %d comments, %d files\n",
			sum.Posts, sum.Pages, sum.Tags, sum.Users, sum.Comments, sum.Files)
		return nil
	}
	return errUsage
}

func open(cfg *config.Config) (*store.Store, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	return store.New(conn), nil
}

func exportTo(ctx context.Context, st *store.Store, path string, stdout io.Writer) error {
	if path == "" {
		return backup.Export(ctx, st, stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := backup.Export(ctx, st, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func restoreFrom(ctx context.Context, st *store.Store, path string) (*backup.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return backup.Restore(ctx, st, f, info.Size())
}
