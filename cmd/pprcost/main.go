package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eufmd/pprcost/internal/logging"
	"github.com/eufmd/pprcost/internal/server"
	"github.com/eufmd/pprcost/pkg/campaign"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
)

func main() {
	// .env is optional; settings may also come from the environment or flags.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the runtime settings shared by every command.
type app struct {
	v   *viper.Viper
	log logr.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logr.Discard()}
	a.v.SetEnvPrefix("PPRCOST")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "pprcost",
		Short:         "PPR vaccination campaign cost estimator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			log, err := logging.New(a.v.GetString("log-level"), a.v.GetBool("log-dev"))
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "log verbosity: info, debug or trace")
	pf.Bool("log-dev", true, "human-readable console logs instead of JSON")
	pf.String("scenario", scenario.ProjectFile, "scenario file inside the project directory")
	pf.String("national", population.NationalFile, "national population table inside the project directory")
	pf.String("subregions", population.SubregionalFile, "subregional population table inside the project directory (empty for none)")
	pf.String("source", string(population.SourceNational), "population table to evaluate: national or subregional")

	rootCmd.AddCommand(a.evaluateCmd())
	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.bandsCmd())
	rootCmd.AddCommand(a.exportCmd())
	rootCmd.AddCommand(a.serveCmd())
	return rootCmd
}

func (a *app) evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [project-path]",
		Short: "Compute two-year campaign costs and print a roll-up table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			return a.runEvaluate(cmd.OutOrStdout(), args[0], sel)
		},
	}
	cmd.Flags().String("level", "region", "roll-up level to print: subregion, country, region or continent")
	cmd.Flags().Bool("species", false, "break every level down by species")
	cmd.Flags().Bool("episystems", false, "also print totals per transboundary episystem")
	cmd.Flags().Bool("json", false, "print the full outcome as JSON")
	addSelectionFlags(cmd)
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a scenario and its population tables without printing costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) bandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bands [project-path]",
		Short: "Compare continental totals under minimum, average and maximum regional costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBands(cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [project-path]",
		Short: "Write entity or aggregate results as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			return a.runExport(cmd.OutOrStdout(), args[0], sel)
		},
	}
	cmd.Flags().String("table", "country", "entities, episystem or a roll-up level")
	cmd.Flags().String("out", "-", "output file, - for stdout")
	cmd.Flags().Bool("species", false, "break rows down by species")
	addSelectionFlags(cmd)
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local server for interactive scenario exploration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			srv := server.New(filepath.Clean(args[0]), a.v.GetInt("port"), a.log)
			return srv.Start()
		},
	}
	cmd.Flags().IntP("port", "p", 3000, "HTTP server port")
	return cmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("select", nil, `evaluate only this country, or "Country:Subregion,Subregion" (repeatable)`)
	cmd.Flags().Bool("within-episystems", false, "evaluate only subregions inside a transboundary episystem")
}

// selectionFlag parses the repeated --select values. A bare country selects
// all of it; a country followed by ":" lists the subregions to keep.
func selectionFlag(cmd *cobra.Command) (campaign.Selection, error) {
	values, err := cmd.Flags().GetStringArray("select")
	if err != nil {
		return nil, err
	}
	sel := campaign.Selection{}
	for _, v := range values {
		country, subs, hasSubs := strings.Cut(v, ":")
		country = strings.TrimSpace(country)
		if country == "" {
			return nil, fmt.Errorf("--select %q: missing country", v)
		}
		if _, ok := sel[country]; !ok {
			sel[country] = nil
		}
		if !hasSubs {
			continue
		}
		for _, sub := range strings.Split(subs, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				sel[country] = append(sel[country], sub)
			}
		}
		if len(sel[country]) == 0 {
			return nil, fmt.Errorf("--select %q: no subregions after ':'", v)
		}
	}
	return sel, nil
}
