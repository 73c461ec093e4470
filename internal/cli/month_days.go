package cli

import (
	"github.com/smallbiznis/astrolabe/internal/calendar"
	"github.com/spf13/cobra"
)

func newMonthDaysCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month-days <YYYY-MM>",
		Short: "List every day of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := calendar.MonthDays(args[0])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Month(month)
		},
	}
}
