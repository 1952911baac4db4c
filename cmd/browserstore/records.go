package main

import (
	"encoding/json"

	"github.com/jrsteele09/go-browserstore/browserstore"
	"github.com/jrsteele09/go-browserstore/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <collection>",
		Short: "Print every record of a collection, in index order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			c := model.NewCollection(b)
			if _, err := c.Fetch(cmd.Context(), nil).Wait(); err != nil {
				return err
			}
			for _, m := range c.Models() {
				if err := printJSON(cmd.OutOrStdout(), m.ToJSON()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			m := model.New(browserstore.Record{model.DefaultIDAttribute: args[1]}, model.WithStorage(b))
			if _, err := m.Fetch(cmd.Context(), nil).Wait(); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m.ToJSON())
		},
	}
}

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <collection> <json>",
		Short: "Store a record and add it to the collection",
		Long: `Store a JSON object as a record of the collection. An object without "id" is created
under a generated identifier; an object naming a known record is merged into it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var attrs browserstore.Record
			if err := json.Unmarshal([]byte(args[1]), &attrs); err != nil {
				return errors.Wrap(err, "put: record is not a JSON object")
			}
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			c := model.NewCollection(b)
			if _, err := c.Fetch(ctx, nil).Wait(); err != nil {
				return err
			}

			var req *browserstore.Request
			if existing := c.Get(attrs[model.DefaultIDAttribute]); existing != nil {
				req = existing.Save(ctx, attrs, nil)
			} else {
				_, req = c.Create(ctx, attrs, nil)
			}
			result, err := req.Wait()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <collection> <id>",
		Short: "Delete a record and drop it from the collection index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, id := args[0], args[1]
			b, err := a.binding(name)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			c, err := indexedCollection(cmd, b)
			if err != nil {
				return err
			}
			m := c.Get(id)
			if m == nil {
				m = model.New(browserstore.Record{model.DefaultIDAttribute: id}, model.WithStorage(b))
			}
			result, err := m.Destroy(ctx, &browserstore.Options{Wait: true}).Wait()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

// indexedCollection rebuilds the membership of a collection from its index alone, so
// entries whose record is gone are kept.
func indexedCollection(cmd *cobra.Command, b *browserstore.BrowserStorage) (*model.Collection, error) {
	keys, err := b.ReadIndex(cmd.Context())
	if err != nil {
		return nil, err
	}
	c := model.NewCollection(b)
	for _, key := range keys {
		if id, ok := browserstore.IDFromItemKey(b.Name(), key); ok {
			c.Add(model.New(browserstore.Record{model.DefaultIDAttribute: id}))
		}
	}
	return c, nil
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <collection>",
		Short: "Delete a collection's index and every one of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			defer b.Close()
			return b.Clear(cmd.Context())
		},
	}
}
