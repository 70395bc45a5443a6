package main

import (
	"bookpublish/internal/printspec"

	"github.com/spf13/cobra"
)

func newSpineCmd() *cobra.Command {
	var (
		pages  int
		trim   string
		paper  string
		vendor string
		dpi    int
		output string
	)

	cmd := &cobra.Command{
		Use:   "spine",
		Short: "Compute spine width and wrap cover dimensions",
		Example: `  publish spine --pages 32 --trim 6x9
  publish spine --pages 120 --trim 8.5x8.5 --paper premium-color --vendor lulu -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := printspec.ForVendor(printspec.Vendor(vendor))
			if err != nil {
				return err
			}
			size, err := profile.RequireTrimSize(trim)
			if err != nil {
				return err
			}
			specs, err := profile.CoverSpecs(pages, size, printspec.PaperType(paper), dpi)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), specs, output)
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 0, "interior page count")
	cmd.Flags().StringVarP(&trim, "trim", "t", "6x9", "trim size WIDTHxHEIGHT in inches")
	cmd.Flags().StringVar(&paper, "paper", string(printspec.PaperWhite), "paper: white, cream, standard-color or premium-color")
	cmd.Flags().StringVar(&vendor, "vendor", string(printspec.VendorKDP), "print vendor: kdp or lulu")
	cmd.Flags().IntVar(&dpi, "dpi", printspec.DefaultDPI, "artwork resolution for pixel dimensions")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	_ = cmd.MarkFlagRequired("pages")

	return cmd
}
