package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/position-valuation/internal/config"
	"github.com/trogers1052/position-valuation/internal/database"
	"github.com/trogers1052/position-valuation/internal/kafka"
	"github.com/trogers1052/position-valuation/internal/models"
	"github.com/trogers1052/position-valuation/internal/recorder"
	"github.com/trogers1052/position-valuation/internal/report"
	"github.com/trogers1052/position-valuation/internal/sheet"
)

type runOptions struct {
	input   string
	sheet   string
	date    string
	useDB   bool
	publish bool
}

type runOutput struct {
	RunID    string
	Workbook string
	Summary  string
	Rows     int
	Skipped  int
}

func runCmd(cfg *config.Config) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Value the positions of a workbook and write the updated copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			evalDate, err := parseEvalDate(opts.date, time.Now())
			if err != nil {
				return err
			}

			input := opts.input
			if input == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to resolve working directory: %w", err)
				}
				if input, err = sheet.FindInput(wd); err != nil {
					if errors.Is(err, sheet.ErrNoInput) {
						return fmt.Errorf("%w: pass --input", err)
					}
					return err
				}
				log.Info().Str("input", input).Msg("using discovered workbook")
			}

			var db *database.DB
			var store recorder.RunStore
			if opts.useDB {
				if db, err = openDB(cfg); err != nil {
					return err
				}
				defer db.Close()
				store = db
			}

			var publisher recorder.RunPublisher
			if opts.publish {
				producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultTopic)
				defer producer.Close()
				publisher = producer
			}

			engine, closeEngine, err := newEngine(ctx, cfg, db)
			if err != nil {
				return err
			}
			defer closeEngine()

			out, err := runWorkbook(ctx, engine, recorder.New(store, publisher), input, opts.sheet, evalDate)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Updated workbook: %s\n", out.Workbook)
			fmt.Fprintf(w, "Summary: %s\n", out.Summary)
			fmt.Fprintf(w, "Rows processed: %d\n", out.Rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "path to the .xlsx/.xlsm position report")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVar(&opts.date, "date", "", "evaluation date YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&opts.useDB, "db", false, "archive history and store results in PostgreSQL")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "publish results to Kafka")
	return cmd
}

func parseEvalDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return models.DateOf(now), nil
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", raw, err)
	}
	return d, nil
}

// valuator runs a batch valuation
type valuator interface {
	Run(ctx context.Context, positions []models.Position, evalDate time.Time) *models.ValuationRun
}

// runWorkbook values every position in the workbook, writes the updated copy
// and the JSON summary next to it, then hands the run to rec
func runWorkbook(ctx context.Context, v valuator, rec *recorder.Recorder, input, sheetName string, evalDate time.Time) (*runOutput, error) {
	wb, err := sheet.Open(input, sheetName)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	positions, skipped := wb.Positions()
	log.Info().Str("sheet", wb.Sheet()).Int("positions", len(positions)).Int("skipped", skipped).Msg("workbook loaded")

	run := v.Run(ctx, positions, evalDate)
	run.Skipped += skipped

	if err := wb.WriteResults(run.Results); err != nil {
		return nil, err
	}
	out := &runOutput{
		RunID:    run.ID,
		Workbook: sheet.OutputPath(input, evalDate),
		Rows:     len(run.Results),
		Skipped:  run.Skipped,
	}
	if err := wb.SaveAs(out.Workbook); err != nil {
		return nil, err
	}

	if out.Summary, err = report.Write(filepath.Dir(input), run); err != nil {
		return nil, err
	}

	if err := rec.HandleRun(ctx, run); err != nil {
		return nil, err
	}
	return out, nil
}
