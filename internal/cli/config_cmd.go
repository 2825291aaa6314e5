package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rizesync/internal/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	var sel selectionFlags

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration with secrets redacted",
		Long: `Print the configuration after defaults, environment, config file and flags
have been applied. Validation problems are reported after the output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			cfg.Apply(g.overrides(cmd, &sel))

			data, err := marshalConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))

			return cfg.Validate()
		},
	}

	sel.register(cmd.Flags())

	return cmd
}

// marshalConfig renders cfg as YAML with secrets masked and durations in
// their readable form.
func marshalConfig(cfg *config.Config) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(cfg.Redacted()); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	setScalar(&node, "http_timeout", cfg.HTTPTimeout.String())
	setScalar(&node, "watch_interval", cfg.WatchInterval.String())

	data, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func setScalar(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
}
