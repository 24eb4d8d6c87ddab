// Package app wires configuration, storage, forecasting, segmentation and reporting into a single
// batch run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	forecaster "github.com/aouyang1/go-demoforecast"
	"github.com/aouyang1/go-demoforecast/internal/config"
	"github.com/aouyang1/go-demoforecast/internal/store"
	"github.com/aouyang1/go-demoforecast/internal/store/csvfile"
	"github.com/aouyang1/go-demoforecast/internal/store/postgres"
	"github.com/aouyang1/go-demoforecast/internal/store/sqlite"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/report"
	"go.uber.org/zap"
)

// output files written next to the csv sink
const (
	DashboardFile = "dashboard.html"
	SummaryFile   = "run_summary.json"
)

var ErrLoadTarget = errors.New("load target must be a database backend")

type App struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	now    func() time.Time
}

// New creates an App printing its tables to out. A nil logger disables logging.
func New(cfg *config.Config, logger *zap.Logger, out io.Writer) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &App{cfg: cfg, logger: logger, out: out, now: time.Now}
}

// Report is the outcome of a run. Either result is nil when its analysis failed.
type Report struct {
	Forecasts    *forecaster.Results
	Segmentation *quadrant.Result
	Summary      *report.Summary
}

// Open connects to the backend. dir is only used by the csv backend.
func Open(ctx context.Context, cfg *config.Config, backend, dir string) (store.Store, error) {
	switch backend {
	case config.BackendCSV:
		s, err := csvfile.New(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := postgres.Connect(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		s, err := sqlite.New(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%q: %w", backend, config.ErrUnknownBackend)
}

// OpenInput opens the configured input backend. A csv input reads the configured file names.
func OpenInput(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Input.Source == config.BackendCSV {
		s, err := csvfile.NewWithFiles(cfg.Input.Dir, cfg.Input.Files.FileMap())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return Open(ctx, cfg, cfg.Input.Source, cfg.Input.Dir)
}

func (a *App) readDataset(ctx context.Context) (*store.Dataset, error) {
	src, err := OpenInput(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s input, %w", a.cfg.Input.Source, err)
	}
	defer src.Close()

	ds, err := store.ReadDataset(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s input, %w", a.cfg.Input.Source, err)
	}
	a.logger.Info("loaded dataset",
		zap.String("source", a.cfg.Input.Source),
		zap.Int("expenditure_rows", len(ds.Expenditure)),
		zap.Int("tfr_rows", len(ds.TFR)),
		zap.Int("regions", len(ds.Regions)),
	)
	return ds, nil
}

func (a *App) forecast(ds *store.Dataset) (*forecaster.Results, error) {
	opt, err := a.cfg.ForecasterOptions(a.logger.Named("forecaster"))
	if err != nil {
		return nil, err
	}
	f, err := forecaster.New(opt)
	if err != nil {
		return nil, err
	}
	return f.Run(ds.Expenditure)
}

func (a *App) segment(ds *store.Dataset) (*quadrant.Result, error) {
	opt, err := a.cfg.QuadrantOptions(a.logger.Named("quadrant"))
	if err != nil {
		return nil, err
	}
	q, err := quadrant.New(opt)
	if err != nil {
		return nil, err
	}
	return q.Analyze(ds.TFR, ds.Expenditure, store.RegionTypes(ds.Regions))
}

// Run reads the inputs, forecasts expenditure and segments regions, then writes every enabled
// output. The two analyses run independently and the outputs of one are still written when the
// other fails, with the failure returned.
func (a *App) Run(ctx context.Context) (*Report, error) {
	ds, err := a.readDataset(ctx)
	if err != nil {
		return nil, err
	}

	var errs []error
	fres, err := a.forecast(ds)
	if err != nil {
		errs = append(errs, fmt.Errorf("forecasting failed, %w", err))
	}
	qres, err := a.segment(ds)
	if err != nil {
		errs = append(errs, fmt.Errorf("segmentation failed, %w", err))
	}

	rep := &Report{
		Forecasts:    fres,
		Segmentation: qres,
		Summary:      report.NewSummary(a.now(), fres, qres),
	}

	if err := a.write(ctx, rep); err != nil {
		errs = append(errs, err)
	}
	if err := a.print(rep); err != nil {
		errs = append(errs, err)
	}
	return rep, errors.Join(errs...)
}

func (a *App) write(ctx context.Context, rep *Report) error {
	out := a.cfg.Outputs
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return fmt.Errorf("unable to create output dir, %w", err)
	}

	saveForecasts := out.SaveForecasts && rep.Forecasts != nil
	saveSegmentation := out.SaveSegmentation && rep.Segmentation != nil
	if saveForecasts || saveSegmentation {
		sink, err := Open(ctx, a.cfg, out.Sink, out.Dir)
		if err != nil {
			return fmt.Errorf("unable to open %s sink, %w", out.Sink, err)
		}
		defer sink.Close()

		if saveForecasts {
			if err := store.WriteForecasts(ctx, sink, rep.Forecasts); err != nil {
				return fmt.Errorf("unable to save forecasts, %w", err)
			}
			a.logger.Info("saved forecasts", zap.String("sink", out.Sink))
		}
		if saveSegmentation {
			if err := store.WriteSegmentation(ctx, sink, rep.Segmentation); err != nil {
				return fmt.Errorf("unable to save segmentation, %w", err)
			}
			a.logger.Info("saved segmentation", zap.String("sink", out.Sink))
		}
	}

	if out.RenderDashboard {
		path := filepath.Join(out.Dir, DashboardFile)
		if err := report.WriteDashboard(path, rep.Forecasts, rep.Segmentation); err != nil {
			return fmt.Errorf("unable to render dashboard, %w", err)
		}
		a.logger.Info("rendered dashboard", zap.String("path", path))
	}

	path := filepath.Join(out.Dir, SummaryFile)
	if err := report.WriteSummary(path, rep.Summary); err != nil {
		return fmt.Errorf("unable to write run summary, %w", err)
	}
	return nil
}

func (a *App) print(rep *Report) error {
	if rep.Forecasts != nil {
		if err := rep.Forecasts.TablePrint(a.out, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
	}
	if rep.Segmentation != nil {
		if err := rep.Segmentation.TablePrint(a.out, "", "  "); err != nil {
			return err
		}
	}
	return nil
}

// Load copies the cleaned csv tables in the input dir into a database backend
func (a *App) Load(ctx context.Context, target string) error {
	if target == config.BackendCSV {
		return ErrLoadTarget
	}

	src, err := csvfile.NewWithFiles(a.cfg.Input.Dir, a.cfg.Input.Files.FileMap())
	if err != nil {
		return err
	}
	ds, err := store.ReadDataset(ctx, src)
	if err != nil {
		return fmt.Errorf("unable to read csv input, %w", err)
	}

	dst, err := Open(ctx, a.cfg, target, "")
	if err != nil {
		return fmt.Errorf("unable to open %s, %w", target, err)
	}
	defer dst.Close()

	if err := store.WriteDataset(ctx, dst, ds); err != nil {
		return fmt.Errorf("unable to load %s, %w", target, err)
	}
	a.logger.Info("loaded tables",
		zap.String("target", target),
		zap.Int("expenditure_rows", len(ds.Expenditure)),
		zap.Int("tfr_rows", len(ds.TFR)),
		zap.Int("regions", len(ds.Regions)),
	)
	return nil
}
