/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command kvinspect prints the raw structures kvobject keeps in a store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/suparena/kvobject"
	"github.com/suparena/kvobject/codec"
	"github.com/suparena/kvobject/config"
	"github.com/suparena/kvobject/datastore"
	kverrors "github.com/suparena/kvobject/errors"
)

const usage = `usage: kvinspect [-config file] [-version] <command> <key> [n]

commands:
  hash <key>          attribute hash of an entity (primary or hash key)
  members <key>       members of a set, e.g. a class plural or collection key
  range <key> [n]     first n members of a sort index, highest score first (default 5)
  history <key>       decoded snapshots of an entity (primary key)
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kvinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	versionFlag := fs.Bool("version", false, "Show version information")
	vFlag := fs.Bool("v", false, "Show version information (short)")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag || *vFlag {
		info := kvobject.GetVersionInfo()
		fmt.Fprintf(stdout, "kvinspect version %s\n", info.Version)
		fmt.Fprintf(stdout, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(stdout, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(stdout, "Go version: %s\n", info.GoVersion)
		return 0
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "kvinspect: %v\n", err)
		return 1
	}
	logger := cfg.Logger(stderr)

	store, err := kvobject.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "kvinspect: %v\n", err)
		return 1
	}
	defer store.Close()

	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		fmt.Fprintf(stderr, "kvinspect: %v\n", err)
		return 1
	}

	out, err := inspect(ctx, store, c, fs.Args(), logger)
	if err != nil {
		fmt.Fprintf(stderr, "kvinspect: %v\n", err)
		if kverrors.IsNotFound(err) {
			return 3
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "kvinspect: %v\n", err)
		return 1
	}
	return 0
}

func inspect(ctx context.Context, store datastore.Reader, c codec.Codec, args []string, logger zerolog.Logger) (any, error) {
	cmd, key := args[0], args[1]
	logger.Debug().Str("command", cmd).Str("key", key).Msg("inspect")

	switch cmd {
	case "hash":
		hkey := kvobject.HashKey(kvobject.PrimaryFromHash(key))
		fields, err := store.HGetAll(ctx, hkey)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, kverrors.NewNotFoundError("hash", hkey)
		}
		return fields, nil

	case "members":
		members, err := store.SMembers(ctx, key)
		if err != nil {
			return nil, err
		}
		return sortedOrEmpty(members), nil

	case "range":
		n := 5
		if len(args) > 2 {
			v, err := strconv.Atoi(args[2])
			if err != nil || v <= 0 {
				return nil, kverrors.NewValidationError("n", fmt.Sprintf("invalid count %q", args[2]))
			}
			n = v
		}
		members, err := store.ZRange(ctx, key, 0, int64(n-1), true)
		if err != nil {
			return nil, err
		}
		if members == nil {
			members = []string{}
		}
		return members, nil

	case "history":
		hkey := kvobject.HistoryKey(kvobject.PrimaryFromHash(key))
		entries, err := store.ZRange(ctx, hkey, 0, -1, false)
		if err != nil {
			return nil, err
		}
		out := make([]kvobject.Snapshot, 0, len(entries))
		for _, raw := range entries {
			var s kvobject.Snapshot
			if err := c.Decode(raw, &s); err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, kverrors.NewValidationError("command", fmt.Sprintf("unknown command %q", cmd))
}

func sortedOrEmpty(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
