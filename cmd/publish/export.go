package main

import (
	"fmt"
	"os"
	"path/filepath"

	"bookpublish/internal/app"
	"bookpublish/internal/imageload"
	"bookpublish/internal/isbn"
	"bookpublish/internal/publish"

	"github.com/spf13/cobra"
)

type exportReport struct {
	RunID   string         `json:"run_id"`
	BookID  string         `json:"book_id"`
	State   publish.State  `json:"state"`
	OutDir  string         `json:"out_dir"`
	Formats []formatReport `json:"formats"`
}

type formatReport struct {
	Format    publish.Format `json:"format"`
	Success   bool           `json:"success"`
	ISBN      string         `json:"isbn,omitempty"`
	Files     []string       `json:"files,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Duration  string         `json:"duration"`
}

func newExportCmd(st *cliState) *cobra.Command {
	var (
		input       string
		outDir      string
		formats     string
		imagePolicy string
		imageRoot   string
		output      string
		assignISBN  bool
		epubISBN    string
		printISBN   string
		parallel    int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate EPUB and print PDFs from a book bundle",
		Example: `  publish export --input book.yaml --out dist
  publish export --input book.json --format kdp_pdf --print-isbn 978-1-7361-0042-0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBook(input)
			if err != nil {
				return err
			}
			fmts, err := publish.ParseFormats(formats)
			if err != nil {
				return err
			}
			policy, err := imageload.ParsePolicy(imagePolicy)
			if err != nil {
				return err
			}

			cfg := st.cfg
			cfg.ImageRoot = imageRoot
			if cfg.ImageRoot == "" {
				cfg.ImageRoot = filepath.Dir(input)
			}
			a, err := app.New(cmd.Context(), cfg, st.log, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			pcfg := publish.Config{
				Formats:     fmts,
				AssignISBNs: assignISBN,
				MaxParallel: parallel,
				ImagePolicy: policy,
			}
			if epubISBN != "" || printISBN != "" {
				pcfg.ExternalISBNs = map[isbn.Format]string{}
				if epubISBN != "" {
					pcfg.ExternalISBNs[isbn.FormatEPUB] = epubISBN
				}
				if printISBN != "" {
					pcfg.ExternalISBNs[isbn.FormatPrint] = printISBN
				}
			}

			progress := func(p publish.Progress) {
				st.log.Debug("progress", "format", p.Format, "phase", p.Phase, "percent", p.Percent)
			}
			res, err := a.Exports.Run(cmd.Context(), book, a.ExportConfig(pcfg), progress)
			if err != nil {
				return err
			}

			report, err := writeArtifacts(res, outDir)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), report, output); err != nil {
				return err
			}
			if res.State != publish.StateDone {
				return fmt.Errorf("export %s finished with failures", res.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "book bundle (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&outDir, "out", "d", "dist", "directory for generated files")
	cmd.Flags().StringVarP(&formats, "format", "f", "epub,kdp_pdf,lulu_pdf", "comma separated formats")
	cmd.Flags().StringVar(&imagePolicy, "image-policy", string(imageload.PolicyPlaceholder), "on image load failure: placeholder or fail")
	cmd.Flags().StringVar(&imageRoot, "image-root", "", "directory relative image refs resolve against (default: the input's directory)")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "report format: yaml or json")
	cmd.Flags().BoolVar(&assignISBN, "assign-isbn", false, "assign ISBNs from the registrant pool")
	cmd.Flags().StringVar(&epubISBN, "epub-isbn", "", "purchased ISBN for the EPUB edition")
	cmd.Flags().StringVar(&printISBN, "print-isbn", "", "purchased ISBN for the paperback edition")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "max formats generated at once (0 = all)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// writeArtifacts saves every generated file below outDir and summarizes
// the run.
func writeArtifacts(res *publish.ExportResult, outDir string) (exportReport, error) {
	report := exportReport{RunID: res.RunID, BookID: res.BookID, State: res.State, OutDir: outDir}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}
	for _, oc := range res.Outcomes {
		fr := formatReport{
			Format:    oc.Format,
			Success:   oc.Success,
			ISBN:      oc.ISBN,
			Error:     oc.Error,
			ErrorCode: oc.ErrorCode,
			Warnings:  oc.Warnings,
			Duration:  oc.Duration.String(),
		}
		for _, f := range oc.Files {
			path := filepath.Join(outDir, filepath.Base(f.Name))
			if err := os.WriteFile(path, f.Data, 0o644); err != nil {
				return report, fmt.Errorf("write %s: %w", f.Name, err)
			}
			fr.Files = append(fr.Files, path)
		}
		report.Formats = append(report.Formats, fr)
	}
	return report, nil
}
