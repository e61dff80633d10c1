package main

import (
	"fmt"
	"strings"

	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect step catalog files",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check catalog files for structural errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogValidate,
}

var catalogFlattenCmd = &cobra.Command{
	Use:   "flatten <file>",
	Short: "Print the navigable step order of a catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogFlatten,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <flow>",
	Short: "Print the effective catalog of a flow as YAML",
	Long: `Print the step catalog a flow runs with, after catalog-dir overrides.
The output is a valid catalog file and can be used as a starting point for
an override.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogShow,
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogFlattenCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		c, err := catalog.LoadFile(path)
		if err == nil {
			err = catalog.Validate(c)
		}
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", path, err)
			continue
		}
		fmt.Printf("✓ %s (%s, %d top-level steps)\n", path, c.ID, len(c.Steps))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d catalogs invalid", failed, len(args))
	}
	return nil
}

func runCatalogFlatten(cmd *cobra.Command, args []string) error {
	c, err := catalog.LoadFile(args[0])
	if err != nil {
		return err
	}
	order, err := catalog.Flatten(c)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s), review: %s\n", c.Title, order.Policy(), order.Review())
	for i, id := range order.IDs() {
		ref, _ := order.Ref(id)
		indent := strings.Repeat("  ", ref.Depth())
		fmt.Printf("%2d. %s%s [%s]\n", i+1, indent, ref.Label(), id)
		for _, b := range order.Breadcrumbs(id) {
			fmt.Printf("      %s› %s [%s]\n", indent, b.Label, b.ID)
		}
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := flows.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to load flows: %w", err)
	}
	f, err := registry.Get(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	data, err := catalog.Marshal(f.Catalog)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(stdout(), highlight(string(data), f.ID+".yml"))
	return err
}
