package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
	"github.com/spf13/cobra"
)

const studentsRetryCount = 2

func newStudentsCmd() *cobra.Command {
	params := &uploadsdk.ListStudentsParams{}

	cmd := &cobra.Command{
		Use:   "students",
		Short: "List processed student records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logs, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logs.Close()

			sdkCfg := cfg.sdkConfig()
			sdkCfg.RetryCount = studentsRetryCount
			sdk, err := uploadsdk.New(sdkCfg)
			if err != nil {
				return err
			}
			defer sdk.Close()

			resp, err := sdk.Students.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Records) == 0 {
				_, err := fmt.Fprintln(out, "No records found")
				return err
			}
			fmt.Fprintln(out, studentsTable(resp.Records))
			_, err = fmt.Fprintf(out, "%s of %s records\n", humanize.Comma(int64(len(resp.Records))), humanize.Comma(resp.Count))
			return err
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.IntVar(&params.Page, "page", 0, "Page number, starting at 1")
	flags.IntVar(&params.Size, "size", 0, "Records per page")
	flags.StringVar(&params.SortBy, "sort-by", "", "Sort column: Student_name, Subject or Grade")
	flags.StringVar(&params.SortOrder, "sort-order", "", "asc or desc")
	flags.StringVar(&params.Name, "name", "", "Filter by name substring")
	flags.StringVar(&params.Subject, "subject", "", "Filter by subject")
	return cmd
}

func studentsTable(rows []*uploadsdk.Student) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(gray).
		Headers("STUDENT ID", "NAME", "SUBJECT", "GRADE")

	for _, s := range rows {
		t.Row(s.StudentID, s.StudentName, s.Subject, strconv.FormatUint(uint64(s.Grade), 10))
	}
	return t.Render()
}
