package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"assignlens/internal/domain"
)

func newCheckCmd(open func() (*cliContext, error)) *cobra.Command {
	var (
		extended bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "check <device-id>",
		Short: "Resolve what applies to a device, and why",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open()
			if err != nil {
				return err
			}
			defer c.close()

			report, err := c.app.Resolution.BuildReport(cmd.Context(), args[0], extended)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || !stdoutIsTerminal(out) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return renderReport(out, report)
		},
	}

	cmd.Flags().BoolVar(&extended, "extended", false, "include cross-policy conflict analysis")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// stdoutIsTerminal reports whether out is an interactive terminal. Piped
// output falls back to JSON so scripts get a stable format.
func stdoutIsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderReport(out io.Writer, report *domain.DeviceReport) error {
	fmt.Fprintf(out, "Device:      %s (%s)\n", report.Device.DisplayName, report.Device.ID)
	fmt.Fprintf(out, "OS:          %s\n", report.Device.OS)
	fmt.Fprintf(out, "Primary:     %s\n", report.Device.PrimaryUserUPN)
	if report.Device.LatestUserUPN != "" {
		fmt.Fprintf(out, "Latest:      %s\n", report.Device.LatestUserUPN)
	}
	fmt.Fprintf(out, "Run:         %s at %s\n", report.RunID, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	sections := []struct {
		title string
		rows  []domain.ResolvedAssignment
	}{
		{"APPLICATIONS", report.Applications},
		{"POLICIES", report.Policies},
		{"SCRIPTS", report.Scripts},
	}
	for _, section := range sections {
		fmt.Fprintf(out, "\n%s (%d)\n", section.title, len(section.rows))
		if len(section.rows) == 0 {
			continue
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCONTEXT\tIN/EX\tGROUP\tUSER\tFILTER")
		for _, row := range section.rows {
			filter := row.FilterName
			if filter != "" && row.FilterMode != domain.FilterModeNone {
				filter = fmt.Sprintf("%s (%s)", filter, row.FilterMode)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				row.AssetName, row.Context, row.IncludeExclude, row.GroupName,
				row.UserPrincipalName, filter)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if report.Conflicts != nil {
		renderConflicts(out, report.Conflicts)
	}
	return nil
}

func renderConflicts(out io.Writer, conflicts *domain.ConflictReport) {
	fmt.Fprintf(out, "\nCONFLICTS (%d) / WARNINGS (%d)\n",
		len(conflicts.Conflicts), len(conflicts.Warnings))
	if !conflicts.HasIssues() {
		fmt.Fprintln(out, "no overlapping settings across applicable policies")
		return
	}

	printGroup := func(label string, g domain.ConflictGroup) {
		fmt.Fprintf(out, "\n[%s] %s\n", label, g.QualifiedName)
		if g.Additive {
			fmt.Fprintln(out, "  additive setting: values merge across policies")
		}
		for _, leaf := range g.Leaves {
			fmt.Fprintf(out, "  %s = %q\n", leaf.OwnerPolicy, leaf.Value)
		}
	}
	for _, g := range conflicts.Conflicts {
		printGroup("CONFLICT", g)
	}
	for _, g := range conflicts.Warnings {
		printGroup("WARNING", g)
	}
}
