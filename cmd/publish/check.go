package main

import (
	"errors"

	"bookpublish/internal/isbn"
	"bookpublish/internal/publish"

	"github.com/spf13/cobra"
)

func newCheckCmd(st *cliState) *cobra.Command {
	var (
		input      string
		formats    string
		output     string
		assignISBN bool
		epubISBN   string
		printISBN  string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a book is ready to export, without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBook(input)
			if err != nil {
				return err
			}
			fmts, err := publish.ParseFormats(formats)
			if err != nil {
				return err
			}
			cfg := publish.Config{Formats: fmts, AssignISBNs: assignISBN, ExternalISBNs: map[isbn.Format]string{}}
			if epubISBN != "" {
				cfg.ExternalISBNs[isbn.FormatEPUB] = epubISBN
			}
			if printISBN != "" {
				cfg.ExternalISBNs[isbn.FormatPrint] = printISBN
			}

			report := publish.CheckReadiness(book, cfg)
			if err := writeOutput(cmd.OutOrStdout(), report, output); err != nil {
				return err
			}
			if !report.Ready {
				st.log.Warn("book is not ready to export", "book_id", report.BookID)
				return errors.New("book is not ready to export")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "book bundle (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&formats, "format", "f", "epub,kdp_pdf,lulu_pdf", "comma separated formats")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "report format: yaml or json")
	cmd.Flags().BoolVar(&assignISBN, "assign-isbn", false, "ISBNs will be assigned from the registrant pool")
	cmd.Flags().StringVar(&epubISBN, "epub-isbn", "", "purchased ISBN for the EPUB edition")
	cmd.Flags().StringVar(&printISBN, "print-isbn", "", "purchased ISBN for the paperback edition")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
