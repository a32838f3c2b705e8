package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/falcon/pkg/output"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

func (a *app) validateCmd() *cobra.Command {
	var target, paramsFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <module>",
		Short: "Check a request against a firmware version",
		Long: `Check which options of a module request are supported by a FortiOS version.

The params file is YAML or JSON. It holds either the module parameter itself
or a whole request with the module parameter as a top-level key.

Examples:
  falcon validate fortios_firewall_policy --target v6.2.0 --params policy.yml
  falcon validate fortios_system_global --target v7.0.0 --params global.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			s, err := a.loadSchema(cfg)
			if err != nil {
				return err
			}
			m, err := s.module(args[0])
			if err != nil {
				return err
			}

			data, err := afero.ReadFile(a.fs, paramsFile)
			if err != nil {
				return fmt.Errorf("failed to read params: %w", err)
			}
			raw, err := schema.DecodeYAML(data)
			if err != nil {
				return fmt.Errorf("failed to parse params %s: %w", paramsFile, err)
			}
			params := raw
			if req, ok := raw.(*schema.Map); ok && req.Has(m.Parameter) {
				params, _ = req.Get(m.Parameter)
			}

			result, err := m.Check(params, target)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else if result.Matched {
				output.Success(fmt.Sprintf("%s is supported by %s", m.Name, result.SystemVersion))
			} else {
				output.Warn(fmt.Sprintf("%s is not fully supported by %s:", m.Name, result.SystemVersion))
				for _, mismatch := range result.Mismatches {
					output.Step(mismatch)
				}
			}

			if !result.Matched {
				return fmt.Errorf("%d unsupported options", len(result.Mismatches))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "FortiOS version to check against, e.g. v6.4.0")
	cmd.Flags().StringVarP(&paramsFile, "params", "p", "", "Request parameters (YAML or JSON)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}
