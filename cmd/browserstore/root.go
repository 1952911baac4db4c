package main

import (
	"encoding/json"
	"io"

	"github.com/jrsteele09/go-browserstore/browserstore"
	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the global flags shared by every command.
type app struct {
	configPath string
	kind       string
	dir        string
	quota      int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "browserstore",
		Short: "Inspect and edit the collections kept in a browserstore store",
		Long: `browserstore opens a session, local or indexedDB store and works on the
collections kept in it: their index entry and one record per model.
Every command prints one JSON document per line.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML store configuration")
	flags.StringVar(&a.kind, "kind", "", "store kind: session, local or indexedDB")
	flags.StringVar(&a.dir, "dir", "", "directory of a local or indexedDB store")
	flags.IntVar(&a.quota, "quota", 0, "store quota in bytes, 0 is unlimited")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newKeysCmd(a),
		newLsCmd(a),
		newGetCmd(a),
		newPutCmd(a),
		newRmCmd(a),
		newClearCmd(a),
		newWatchCmd(a),
	)
	return root
}

// config merges the flags over the configuration file.
func (a *app) config() (storage.Config, error) {
	cfg := storage.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = storage.LoadConfig(a.configPath); err != nil {
			return cfg, err
		}
	}
	cfg.Merge(&storage.Config{Kind: storage.Kind(a.kind), Dir: a.dir, Quota: a.quota})
	return cfg, cfg.Validate()
}

func (a *app) open() (storage.Store, storage.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	s, err := storage.Open(cfg)
	return s, cfg, err
}

// binding opens the store and binds collection name to it. Closing the binding closes the store.
func (a *app) binding(name string) (*browserstore.BrowserStorage, error) {
	s, cfg, err := a.open()
	if err != nil {
		return nil, err
	}
	b, err := browserstore.New(name, cfg.Kind, browserstore.WithStore(s))
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "binding %s", name)
	}
	return b, nil
}

func printJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
