package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func runCmd(logger func() (*slog.Logger, error)) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "run -f workload.yaml",
		Short: "Run workloads once and print their results",
		Long: `Run each workload file in order and print its result as YAML.
The first failing workload stops the run.`,
		Example: `  sigbench run -f chains.yaml
  sigbench run -f chains.yaml -f store.yaml --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}

			for _, path := range files {
				w, err := LoadWorkload(path)
				if err != nil {
					return err
				}

				res, err := Run(w, log)
				if err != nil {
					return err
				}

				out, err := yaml.Marshal(res)
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "---\n%s", out)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Workload file (repeatable)")
	cmd.MarkFlagRequired("file")

	return cmd
}
