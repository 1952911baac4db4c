package main

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newKeysCmd(a *app) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the physical keys of the store",
		Long:  `List every key of the store, index entries and records alike, in key order. --match keeps the keys matching a glob such as "todos-*".`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if match != "" && !doublestar.ValidatePattern(match) {
				return errors.Errorf("invalid pattern %q", match)
			}
			s, _, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			keys, err := s.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range keys {
				if match != "" {
					if ok, _ := doublestar.Match(match, key); !ok {
						continue
					}
				}
				if err := printJSON(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "glob the keys must match")
	return cmd
}
