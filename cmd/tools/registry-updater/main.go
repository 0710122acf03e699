// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cnes-dashboard/pkg/registry"
)

const defaultRegistryPath = "configs/field-registry.json"

var registryPath string

var rootCmd = &cobra.Command{
	Use:          "registry-updater",
	Short:        "Maintain the record view field registry",
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in layout to the registry file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(registryPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", registryPath)
		}
		reg := registry.Default()
		reg.LastUpdated = ""
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote registry: %s\n", registryPath)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a field to a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		key, _ := cmd.Flags().GetString("key")
		label, _ := cmd.Flags().GetString("label")
		kind, _ := cmd.Flags().GetString("kind")

		reg, err := loadOrDefault(registryPath)
		if err != nil {
			return err
		}
		if err := reg.AddField(section, registry.Field{Key: key, Label: label, Kind: registry.Kind(kind)}); err != nil {
			return fmt.Errorf("error adding field: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added field: %s\n", key)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the label or kind of a field",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		field, _ := cmd.Flags().GetString("field")
		value, _ := cmd.Flags().GetString("value")

		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.UpdateField(key, field, value); err != nil {
			return fmt.Errorf("error updating field: %w", err)
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated field %s, %s to %s\n", key, field, value)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry file for duplicates and unknown kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registry validation passed.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "path", defaultRegistryPath, "Path to registry file")

	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	addCmd.Flags().String("section", "", "Section ID (principal, contato, mais)")
	addCmd.Flags().String("key", "", "API field name (e.g. estabelecimento_possui_centro_neonatal)")
	addCmd.Flags().String("label", "", "Display label")
	addCmd.Flags().String("kind", string(registry.KindText), "Field kind (text, flag)")
	for _, name := range []string{"section", "key", "label"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	updateCmd.Flags().String("key", "", "API field name to update")
	updateCmd.Flags().String("field", "", "Attribute to update (label, kind)")
	updateCmd.Flags().String("value", "", "New value")
	for _, name := range []string{"key", "field", "value"} {
		_ = updateCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(initCmd, addCmd, updateCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadOrDefault starts from the built-in layout when the file does not exist
// yet.
func loadOrDefault(path string) (*registry.FieldRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if os.IsNotExist(err) {
		return registry.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}
