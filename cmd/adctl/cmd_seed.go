package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ad-placement-service/internal/infra/adclient"
)

// seedFile is the YAML layout accepted by seed.
type seedFile struct {
	Ads []adclient.AdSpec `yaml:"ads"`
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create advertisements from a YAML file",
		Long: `Seed reads a list of advertisements and creates each one through the
admin API. Creation stops at the first rejected ad.

Example file:
  ads:
    - title: Summer sale
      position: home-top
      type: banner
      priority: 5
      target_context: [home, shop]
      keywords: [summer, sale]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			specs, err := loadSeed(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, s := range specs {
					fmt.Fprintf(out, "would create %q at %s (%s)\n", s.Title, s.Position, s.Type)
				}
				return nil
			}

			log, err := newLogger(v)
			if err != nil {
				return err
			}
			client := adclient.New(clientConfig(v), log)

			for i, spec := range specs {
				ad, err := client.CreateAd(cmd.Context(), spec)
				if err != nil {
					return fmt.Errorf("ad %d: %w", i+1, err)
				}
				fmt.Fprintf(out, "created %s %q\n", ad.ID, ad.Title)
			}

			fmt.Fprintf(out, "Seeded %d ads\n", len(specs))
			return nil
		},
	}

	cmd.Flags().String("file", "ads.yaml", "YAML file with an ads list")
	cmd.Flags().Bool("dry-run", false, "Parse and print without creating")

	return cmd
}

// loadSeed parses and checks a seed file before anything is sent.
func loadSeed(path string) ([]adclient.AdSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	if len(f.Ads) == 0 {
		return nil, fmt.Errorf("seed file %s has no ads", path)
	}

	var problems []string
	for i, s := range f.Ads {
		var missing []string
		if strings.TrimSpace(s.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(s.Position) == "" {
			missing = append(missing, "position")
		}
		if strings.TrimSpace(s.Type) == "" {
			missing = append(missing, "type")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("ad %d: missing %s", i+1, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid seed file %s: %s", path, strings.Join(problems, "; "))
	}

	return f.Ads, nil
}
