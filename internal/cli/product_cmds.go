package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/ui/components"
)

const (
	labelProducts = "Products"
	labelProduct  = "Product"
)

func newProductsCmd(opts *options) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.requireSession(ctx, labelProducts); err != nil {
				return err
			}

			h := rt.handler(apperrors.ProductsMessages)
			products, err := run(ctx, h, labelProducts, rt.client.ListProducts)
			if err != nil {
				return err
			}

			if category != "" {
				filtered := products[:0]
				for _, p := range products {
					if strings.EqualFold(p.Category, category) {
						filtered = append(filtered, p)
					}
				}
				products = filtered
			}

			if len(products) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products.")
				return nil
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only show this category")
	return cmd
}

func newProductCmd(opts *options) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			h := rt.handler(apperrors.ProductsMessages)

			id, convErr := strconv.Atoi(args[0])
			if convErr != nil {
				h.Report(&apperrors.InputFault{Field: "id", Message: "Product id must be a positive number."}, labelProduct)
				return h.CurrentError()
			}

			if err := rt.requireSession(ctx, labelProduct); err != nil {
				return err
			}

			p, err := run(ctx, h, labelProduct, func(ctx context.Context) (*interfaces.Product, error) {
				return rt.client.GetProduct(ctx, id)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				text, err := highlighterFor(out, rt.theme).ProductJSON(*p)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			printPairs(out, [][2]string{
				{"ID", strconv.Itoa(p.ID)},
				{"Title", p.Title},
				{"Price", components.Price(p.Price)},
				{"Category", p.Category},
				{"Rating", fmt.Sprintf("%.1f (%d reviews)", p.Rating.Rate, p.Rating.Count)},
			})
			if p.Description != "" {
				fmt.Fprintf(out, "\n%s\n", p.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the product as JSON")
	return cmd
}
