package main

import (
	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type watchEvent struct {
	Key string `json:"key"`
	Op  string `json:"op"`
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the changes made to a local store until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.Kind != storage.KindLocal {
				return errors.Errorf("watch needs a local store, not %s", cfg.Kind)
			}
			events, err := storage.Watch(cmd.Context(), cfg.Dir)
			if err != nil {
				return err
			}
			for e := range events {
				if err := printJSON(cmd.OutOrStdout(), watchEvent{Key: e.Key, Op: e.Op.String()}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
