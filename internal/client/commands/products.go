package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/client/output"
)

// MsgNoProductsAssigned is printed when the caller owns no products
const MsgNoProductsAssigned = "no products assigned yet"

func newProductsCmd(a *app) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Long: `List the BekoSIRS product catalog.

--search keeps products whose name contains the query, ignoring case.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.catalog.Products(cmd.Context(), search)
			if err != nil {
				return err
			}

			return a.emit(products, func(w io.Writer) error {
				if len(products) == 0 {
					if search != "" {
						fmt.Fprintf(w, "No products match %q\n", search)
					} else {
						fmt.Fprintln(w, "No products found")
					}
					return nil
				}
				return output.WriteProducts(w, products, false)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter products by name")

	return cmd
}

func newMyProductsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "my-products",
		Short: "List the products assigned to your account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.catalog.MyProducts(cmd.Context())
			if err != nil {
				return err
			}

			return a.emit(products, func(w io.Writer) error {
				if len(products) == 0 {
					fmt.Fprintln(w, MsgNoProductsAssigned)
					return nil
				}
				return output.WriteProducts(w, products, true)
			})
		},
	}
}
