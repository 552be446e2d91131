package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/classify"
)

var classifyBio string

var classifyCmd = &cobra.Command{
	Use:   "classify <display-name>",
	Short: "Show whether an account name reads as a person or an organization",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		rule := classify.Explain(name, classifyBio, "")
		if rule == "" {
			fmt.Fprintf(os.Stdout, "%s\n", classify.KindPerson)
			return nil
		}
		fmt.Fprintf(os.Stdout, "%s (%s)\n", classify.KindOrganization, rule)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyBio, "bio", "", "profile bio to check alongside the name")
	rootCmd.AddCommand(classifyCmd)
}
