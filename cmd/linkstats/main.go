// Linkstats inspects and maintains the click record that ranks hints.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"hintnav/config"
	"hintnav/stats"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: linkstats <command> [args]

Commands:
  show [host]           List clicked elements, most clicked first
  forget <host>         Drop everything recorded for host
  migrate <to> [path]   Copy the record to another backend (json or sqlite)
  where                 Print where the record is stored`)
}

func run(w io.Writer, args []string) error {
	if len(args) == 0 {
		usage(w)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, closeStore, err := stats.Open(cfg.Stats.Backend, cfg.Stats.Path)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	switch args[0] {
	case "show":
		host := ""
		if len(args) > 1 {
			host = args[1]
		}
		return show(ctx, w, store, host)
	case "forget":
		if len(args) < 2 {
			return errors.New("forget needs a host")
		}
		return forget(ctx, store, args[1])
	case "migrate":
		if len(args) < 2 {
			return errors.New("migrate needs a backend")
		}
		path := ""
		if len(args) > 2 {
			path = args[2]
		}
		return migrate(ctx, store, args[1], path)
	case "where":
		return where(w, store)
	case "-h", "--help", "help":
		usage(w)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func show(ctx context.Context, w io.Writer, store stats.Store, host string) error {
	s, err := store.Load(ctx)
	if err != nil {
		return err
	}
	hosts := s.Hosts()
	if host != "" {
		hosts = []string{host}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, h := range hosts {
		for _, e := range s.Ranked(h) {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", h, e.Count, e.Key)
		}
	}
	return tw.Flush()
}

func forget(ctx context.Context, store stats.Store, host string) error {
	s, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := s[host]; !ok {
		return fmt.Errorf("nothing recorded for %s", host)
	}
	delete(s, host)
	return store.Save(ctx, s)
}

func migrate(ctx context.Context, from stats.Store, backend, path string) error {
	s, err := from.Load(ctx)
	if err != nil {
		return err
	}
	to, closeTo, err := stats.Open(backend, path)
	if err != nil {
		return err
	}
	defer closeTo()
	return to.Save(ctx, s)
}

func where(w io.Writer, store stats.Store) error {
	l, ok := store.(interface{ Path() string })
	if !ok {
		return errors.New("store is not backed by a file")
	}
	_, err := fmt.Fprintln(w, l.Path())
	return err
}
