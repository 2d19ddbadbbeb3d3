package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicpulse/clinicpulse/internal/databricks"
	"github.com/clinicpulse/clinicpulse/internal/warehouse"
)

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Manage SQL warehouses",
}

var warehouseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List SQL warehouses in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := warehouseClient()
		if err != nil {
			return err
		}

		warehouses, err := client.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(warehouses) == 0 {
			fmt.Println("No warehouses found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATE\tSIZE\tTYPE")
		for _, wh := range warehouses {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wh.ID, wh.Name, wh.State, wh.ClusterSize, wh.WarehouseType)
		}
		return w.Flush()
	},
}

var warehouseStartCmd = &cobra.Command{
	Use:   "start <warehouse-id>",
	Short: "Start a SQL warehouse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := warehouseClient()
		if err != nil {
			return err
		}
		if err := client.Start(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Warehouse starting, this may take 30-60 seconds.")
		return nil
	},
}

var warehouseStopCmd = &cobra.Command{
	Use:   "stop <warehouse-id>",
	Short: "Stop a SQL warehouse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := warehouseClient()
		if err != nil {
			return err
		}
		if err := client.Stop(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Warehouse stopping.")
		return nil
	},
}

var warehouseStatusCmd = &cobra.Command{
	Use:   "status [warehouse-id]",
	Short: "Show the state of a warehouse (defaults to the configured one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := warehouseClient()
		if err != nil {
			return err
		}

		id := ""
		if len(args) > 0 {
			id = args[0]
		} else if cfg.DatabricksWarehouseID == "" {
			return errors.New("no warehouse id given and DATABRICKS_WAREHOUSE_ID is not set")
		}

		wh, err := client.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s): %s\n", wh.Name, wh.ID, wh.State)
		return nil
	},
}

func init() {
	warehouseCmd.AddCommand(warehouseListCmd)
	warehouseCmd.AddCommand(warehouseStartCmd)
	warehouseCmd.AddCommand(warehouseStopCmd)
	warehouseCmd.AddCommand(warehouseStatusCmd)
}

func warehouseClient() (*warehouse.Client, error) {
	if cfg.DatabricksHost == "" || cfg.DatabricksToken == "" {
		return nil, errors.New("Databricks is not configured: set DATABRICKS_HOST and DATABRICKS_TOKEN")
	}

	api := databricks.New(cfg.DatabricksHost, cfg.DatabricksToken, cfg.HTTPTimeout)
	return warehouse.New(api, cfg.DatabricksWarehouseID, logger), nil
}
