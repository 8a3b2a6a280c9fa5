package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hongminglow/backoffice/internal/inventory"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

var errNotSignedIn = errors.New("not signed in; run 'backoffice login' first")

func newModulesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List plan modules and whether they are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.app.Session.Snapshot()
			if !snap.Authenticated() {
				return errNotSignedIn
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tNAME\tACCESS")
			for _, m := range snap.User.Plan.Modules {
				access := "upgrade required"
				if rt.app.Gate.HasModuleAccess(m.Key) {
					access = "available"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Key, m.Name, access)
			}
			return w.Flush()
		},
	}
}

func newOpenCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "open [module]",
		Short: "Resolve the view to open for a module",
		Long: `Resolve which view to open. An unavailable module falls back to the first
available one in the fixed priority order, starting with the dashboard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) == 1 {
				requested = args[0]
			}
			out := cmd.OutOrStdout()
			view, ok := rt.app.Gate.Resolve(requested)
			if !ok {
				fmt.Fprintln(out, "no accessible modules")
				return nil
			}
			if requested != "" && view != requested {
				fmt.Fprintf(out, "%s is not available on your plan\n", requested)
			}
			fmt.Fprintf(out, "opening %s\n", view)
			return nil
		},
	}
}

func newStockCmd(rt *runtime) *cobra.Command {
	stock := &cobra.Command{
		Use:   "stock",
		Short: "Inventory entries and exits",
	}

	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stock movements of the current company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			movements, err := rt.app.Inventory.List(cmd.Context(), kind)
			if err != nil {
				return stockError(err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tPRODUCT\tQUANTITY\tCREATED")
			for _, m := range movements {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", m.ID, m.Kind, m.Product, m.Quantity, m.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "filter by kind: entry or exit")

	var in dto.StockMovementInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a stock entry or exit",
		Example: `  backoffice stock add --product "Parafuso 6mm" --quantity 100
  backoffice stock add --product "Parafuso 6mm" --quantity 5 --kind exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := rt.app.Inventory.Record(cmd.Context(), in)
			if err != nil {
				return stockError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %d x %s (%s)\n", created.Kind, created.Quantity, created.Product, created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.Product, "product", "", "product name")
	add.Flags().Int64Var(&in.Quantity, "quantity", 0, "quantity, greater than zero")
	add.Flags().StringVar(&in.Kind, "kind", models.StockEntry, "entry or exit")

	stock.AddCommand(list, add)
	return stock
}

func stockError(err error) error {
	switch {
	case errors.Is(err, inventory.ErrModuleUnavailable):
		return errors.New("the stock module is not available for this session; sign in or upgrade the plan")
	case errors.Is(err, inventory.ErrNotPermitted):
		return fmt.Errorf("you are not allowed to do that: %w", err)
	default:
		return err
	}
}
