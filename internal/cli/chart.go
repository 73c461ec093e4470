package cli

import (
	"errors"
	"fmt"

	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
	"github.com/smallbiznis/astrolabe/internal/envelope"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"github.com/smallbiznis/astrolabe/pkg/solardate"
	"github.com/spf13/cobra"
)

// ErrCalculationFailed is returned after an error envelope has been printed.
var ErrCalculationFailed = errors.New("calculation failed")

type natalFlags struct {
	solarDate string
	timeIndex int
	gender    string
	fixLeap   bool
	language  string
}

func (f *natalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.solarDate, "solar-date", "", "birth date, YYYY-M-D")
	cmd.Flags().IntVar(&f.timeIndex, "time-index", 0, "birth hour index, 0-12")
	cmd.Flags().StringVar(&f.gender, "gender", "", "male|female (男|女 accepted)")
	cmd.Flags().BoolVar(&f.fixLeap, "fix-leap", true, "adjust leap months")
	cmd.Flags().StringVar(&f.language, "language", "zh-CN", "output language (zh-CN|zh-TW|en-US)")
	_ = cmd.MarkFlagRequired("solar-date")
	_ = cmd.MarkFlagRequired("gender")
}

func (f *natalFlags) params() (chartdomain.NatalParams, error) {
	if _, err := solardate.Parse(f.solarDate); err != nil {
		return chartdomain.NatalParams{}, fmt.Errorf("--solar-date: %w", err)
	}
	if f.timeIndex < recorddomain.MinTimeIndex || f.timeIndex > recorddomain.MaxTimeIndex {
		return chartdomain.NatalParams{}, fmt.Errorf("--time-index must be between %d and %d", recorddomain.MinTimeIndex, recorddomain.MaxTimeIndex)
	}
	gender, err := recorddomain.NormalizeGender(f.gender)
	if err != nil {
		return chartdomain.NatalParams{}, fmt.Errorf("--gender: %w", err)
	}
	switch f.language {
	case "zh-CN", "zh-TW", "en-US":
	default:
		return chartdomain.NatalParams{}, fmt.Errorf("--language %q is not supported", f.language)
	}

	return chartdomain.NatalParams{
		SolarDate: f.solarDate,
		TimeIndex: f.timeIndex,
		Gender:    gender,
		FixLeap:   f.fixLeap,
		Language:  f.language,
	}, nil
}

func newChartCommand(opts *RootOptions, deps Deps) *cobra.Command {
	flags := &natalFlags{}

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Compute a natal chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}

			svc := opts.service(deps, opts.logger(cmd.ErrOrStderr()))
			out := chartdomain.OK(nil, nil)
			if chart, err := svc.ComputeNatal(cmd.Context(), params); err != nil {
				out = chartdomain.Failed(err)
			} else {
				out.Natal = chart
			}
			return render(opts, cmd, out, deps)
		},
	}
	flags.register(cmd)

	return cmd
}

func newHoroscopeCommand(opts *RootOptions, deps Deps) *cobra.Command {
	flags := &natalFlags{}
	var (
		targetDate      string
		targetTimeIndex int
	)

	cmd := &cobra.Command{
		Use:   "horoscope",
		Short: "Compute a natal chart and its horoscope for a target date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			natal, err := flags.params()
			if err != nil {
				return err
			}
			if _, err := solardate.Parse(targetDate); err != nil {
				return fmt.Errorf("--target-date: %w", err)
			}
			if targetTimeIndex < recorddomain.MinTimeIndex || targetTimeIndex > recorddomain.MaxTimeIndex {
				return fmt.Errorf("--target-time-index must be between %d and %d", recorddomain.MinTimeIndex, recorddomain.MaxTimeIndex)
			}

			svc := opts.service(deps, opts.logger(cmd.ErrOrStderr()))
			out := svc.ComputeComplete(cmd.Context(), chartdomain.HoroscopeParams{
				Natal:           natal,
				TargetDate:      targetDate,
				TargetTimeIndex: targetTimeIndex,
			})
			return render(opts, cmd, out, deps)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&targetDate, "target-date", "", "target date, YYYY-M-D")
	cmd.Flags().IntVar(&targetTimeIndex, "target-time-index", 0, "target hour index, 0-12")
	_ = cmd.MarkFlagRequired("target-date")

	return cmd
}

func render(opts *RootOptions, cmd *cobra.Command, out chartdomain.Outcome, deps Deps) error {
	env := envelope.FromOutcome(out, deps.clk().Now())
	if err := opts.formatter(cmd).Envelope(env); err != nil {
		return err
	}
	if env.Status == envelope.StateError {
		return ErrCalculationFailed
	}
	return nil
}
