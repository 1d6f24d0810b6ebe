package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kennel/internal/listing"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// found turns a failed Result into ErrNotFound carrying its message.
func found[T any](res types.Result[T]) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", types.ErrNotFound, res.Message)
}

func (a *app) entitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List stored entity collections",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			names, err := svc.Entities(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if names == nil {
					names = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// listPage is the JSON shape of one page of a listing.
type listPage struct {
	Entity     string         `json:"entity"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	TotalItems int            `json:"totalItems"`
	Items      []types.Record `json:"items"`
}

func (a *app) listCmd() *cobra.Command {
	var (
		page    int
		perPage int
		search  string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List records of an entity, one page at a time",
		Long: `List prints one page of an entity's records. --search keeps records with a
string field containing the term, ignoring case. Pages are clamped to the
range that exists.

Example:
  kennel list Product
  kennel list Product --search 사료 --page 2 --per-page 10
  kennel list users --all --json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.GetAll(cmd.Context(), entity)
			if err != nil {
				return err
			}

			pager := listing.NewPager(res.Data, listing.Options{PerPage: perPage, Unpaginated: all})
			pager.ApplyFilter(listing.TermFilter(search))
			pager.GoTo(page)

			out := listPage{
				Entity:     entity,
				Page:       pager.Current(),
				TotalPages: pager.TotalPages(),
				TotalItems: pager.TotalItems(),
				Items:      pager.Page(),
			}
			if out.Items == nil {
				out.Items = []types.Record{}
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			for _, rec := range out.Items {
				fmt.Fprintln(w, summary(rec))
			}
			fmt.Fprintf(w, "page %d/%d (%d items)\n", out.Page, out.TotalPages, out.TotalItems)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&perPage, "per-page", listing.DefaultPerPage, "records per page")
	cmd.Flags().StringVar(&search, "search", "", "keep records with a field containing this term")
	cmd.Flags().BoolVar(&all, "all", false, "print every matching record on one page")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Get a record by id",
		Long: `Get prints one record as JSON. Numeric ids and string ids never match each
other: "3" is the number 3, quote it for the string.

Example:
  kennel get Product 3
  kennel get users '"1717000000000"'`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.GetByID(cmd.Context(), args[0], parseIDArg(args[1]))
			if err != nil {
				return err
			}
			if err := found(res); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.Data)
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <entity> <json>",
		Short: "Create a record; its id is assigned by the service",
		Long: `Create stores a new record. Any id in the JSON is replaced.

Example:
  kennel create Product '{"name":"Chew toy","price":9900}'`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Create(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), res.Data)
			}
			id, _ := res.Data.ID()
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", args[0], id)
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <id> <json>",
		Short: "Merge fields into a record",
		Long: `Update merges the JSON object's fields into the stored record. The id
never changes.

Example:
  kennel update Product 3 '{"stock":0}'`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseRecord(args[2])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Update(cmd.Context(), args[0], parseIDArg(args[1]), fields)
			if err != nil {
				return err
			}
			if err := found(res); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), res.Data)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Remove(cmd.Context(), args[0], parseIDArg(args[1]))
			if err != nil {
				return err
			}
			if err := found(res); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), res.Data)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

// parseIDArg reads an id argument. A JSON string literal gives a string id
// even when its text is numeric.
func parseIDArg(arg string) types.ID {
	var id types.ID
	if len(arg) >= 2 && arg[0] == '"' && id.UnmarshalJSON([]byte(arg)) == nil {
		return id
	}
	return types.ParseID(arg)
}
