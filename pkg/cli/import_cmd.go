package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(open func() (*cliContext, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot-dir>",
		Short: "Import an exported tenant snapshot into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open()
			if err != nil {
				return err
			}
			defer c.close()

			summary, err := c.app.Snapshot.ImportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"imported %d devices, %d memberships, %d applications, %d policies, %d scripts, %d filters, %d settings documents\n",
				summary.Devices, summary.Memberships, summary.Applications,
				summary.Policies, summary.Scripts, summary.Filters, summary.SettingsDocs)
			return nil
		},
	}
}
