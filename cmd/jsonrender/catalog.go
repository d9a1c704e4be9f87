package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
)

func describeCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe the catalog's components and props",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			desc := cat.Describe()
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), desc.String())
				return nil
			}
			data, err := desc.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the structured description")
	return cmd
}

func promptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt generators receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), generator.SystemPrompt(cat))
			return nil
		},
	}
}

func schemaCmd(opts *options) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export JSON Schema for elements or one component's props",
		Example: `  jsonrender schema
  jsonrender schema --type Chart`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}

			doc := cat.ElementSchema()
			if typeName != "" {
				if doc, err = cat.JSONSchema(typeName); err != nil {
					return err
				}
			}
			data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "Component type to export")
	return cmd
}
