package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"conformcheck/internal/rules"
)

var rulesListQuiet bool
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage and list rules",
	Long: `Inspect the conformance rule table.

This command group shows which rules exist, what each rule checks and which
options it accepts via --set (see "conformcheck check --help").

Examples:
  # List all available rules
  conformcheck rules list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long: `List all rules in the built-in table.

Rules are listed in evaluation order.

Examples:
  conformcheck rules list
  conformcheck rules list -q

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID}
    ----------------------------------------
    {DESCRIPTION}
    {KIND} {SEVERITY} {SCOPE}:{TARGET}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, r := range rules.List() {
			if rulesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), r.ID)
			} else {
				printRule(cmd.OutOrStdout(), r)
			}
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific rule by its ID.

Examples:
  conformcheck rules show php-version
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, ok := rules.Find(rules.List(), args[0])
		if !ok {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		printRule(cmd.OutOrStdout(), r)
		return nil
	},
}

func describeCheck(r rules.Rule) string {
	switch r.Kind {
	case rules.KindVersionAtLeast:
		return fmt.Sprintf("runtime version >= %s", r.Minimum)
	case rules.KindExtensionLoaded:
		return fmt.Sprintf("extension %s", r.Target)
	}

	where := fmt.Sprintf("%s:%s", r.Scope, strings.Join(r.Candidates(), " | "))
	switch r.Kind {
	case rules.KindJSONKeyPresent, rules.KindYAMLKeyPresent:
		where += " key " + r.KeyPathString()
		if r.Expect != "" {
			where += fmt.Sprintf(" = %q", r.Expect)
		}
	case rules.KindStringContains:
		where += fmt.Sprintf(" contains %q", r.Substring)
	}
	return where
}

func printRule(w io.Writer, r rules.Rule) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.ID)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, r.Description)
	fmt.Fprintf(w, "%s %s %s\n", r.Kind, r.Severity, describeCheck(r))

	opts := r.Options()
	if len(opts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		for _, opt := range opts {
			def := opt.Default
			if def == "" {
				def = "\"\""
			}
			fmt.Fprintf(w, "  %s\n", opt.Name)
			fmt.Fprintf(w, "    Description: %s\n", opt.Description)
			fmt.Fprintf(w, "    Default:     %s\n", def)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVarP(&rulesListQuiet, "quiet", "q", false, "Only print rule IDs")
	rulesCmd.AddCommand(rulesShowCmd)
}
