package main

import (
	"errors"
	"fmt"

	"bookpublish/internal/app"
	"bookpublish/internal/isbn"

	"github.com/spf13/cobra"
)

func newISBNCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "isbn",
		Short: "Validate, convert and assign ISBNs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate CODE...",
		Short: "Check ISBN-10 or ISBN-13 codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, code := range args {
				info := isbn.Describe(code)
				if !info.Valid {
					invalid++
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\t%s\n", code, info.Error)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tvalid\t%s\n", code, info.Hyphenated)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d codes are invalid", invalid, len(args))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "format CODE",
		Short: "Print the hyphenated ISBN-13",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := isbn.Describe(args[0])
			if !info.Valid {
				return errors.New(info.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Hyphenated)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "convert CODE",
		Short: "Convert between ISBN-10 and ISBN-13",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := isbn.Normalize(args[0])
			var (
				out string
				err error
			)
			if len(n) == 10 {
				out, err = isbn.Convert10To13(n)
			} else {
				out, err = isbn.Convert13To10(n)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	})

	cmd.AddCommand(newISBNAssignCmd(st), newISBNListCmd(st))
	return cmd
}

func newISBNAssignCmd(st *cliState) *cobra.Command {
	var (
		bookID  string
		edition string
		code    string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign the next pool ISBN to an edition, or register a purchased one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), st.cfg, st.log, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			var rec isbn.Record
			if code != "" {
				rec, err = a.ISBNs.AssignExisting(cmd.Context(), bookID, isbn.Format(edition), code)
			} else {
				rec, err = a.ISBNs.Assign(cmd.Context(), bookID, isbn.Format(edition))
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), rec, output)
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book ID")
	cmd.Flags().StringVar(&edition, "edition", string(isbn.FormatEPUB), "edition: epub or print")
	cmd.Flags().StringVar(&code, "isbn", "", "purchased ISBN to register instead of drawing from the pool")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newISBNListCmd(st *cliState) *cobra.Command {
	var (
		bookID string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the ISBNs recorded for a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), st.cfg, st.log, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.ISBNs.List(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			if records == nil {
				records = []isbn.Record{}
			}
			return writeOutput(cmd.OutOrStdout(), records, output)
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book ID")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}
