package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pantry-tools/cubscrape/store"
)

var showItems bool

func init() {
	ordersCmd.Flags().BoolVar(&showItems, "items", false, "also print each order's line items")
	rootCmd.AddCommand(ordersCmd)
}

var ordersCmd = &cobra.Command{
	Use:          "orders",
	Short:        "Prints the stored order history.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		orders, err := store.NewGateway(db).Orders(context.Background())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Order #", "Date", "Type", "Total", "Items", "Location"})
		for _, o := range orders {
			t.AppendRow(table.Row{
				o.OrderNumber, o.OrderDate, o.OrderType,
				fmt.Sprintf("$%.2f", o.TotalPrice), o.ItemCount, o.Location,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if !showItems {
			return nil
		}
		for _, o := range orders {
			if len(o.Items) == 0 {
				continue
			}
			fmt.Printf("\nOrder %s\n", o.OrderNumber)
			it := table.NewWriter()
			it.SetOutputMirror(os.Stdout)
			it.AppendHeader(table.Row{"Product", "Qty", "Unit", "Total", "UPC"})
			for _, item := range o.Items {
				it.AppendRow(table.Row{
					item.ProductName, item.Quantity,
					fmt.Sprintf("$%.2f", item.UnitPrice),
					fmt.Sprintf("$%.2f", item.ProductTotal),
					item.UPC,
				})
			}
			it.SetStyle(table.StyleRounded)
			it.Render()
		}
		return nil
	},
}
