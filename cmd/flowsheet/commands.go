package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tegakist/DSS/internal/board"
	"github.com/Tegakist/DSS/internal/server"
	"github.com/Tegakist/DSS/pkg/flowsheet"
	"github.com/Tegakist/DSS/pkg/flowsheet/layout"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/output"
	"github.com/Tegakist/DSS/pkg/flowsheet/serial"
	"github.com/Tegakist/DSS/pkg/flowsheet/store"
)

func importFile(path string) (*flowsheet.Session, error) {
	l, err := resolveLayout()
	if err != nil {
		return nil, err
	}
	s, err := flowsheet.ImportFile(path, l)
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}
	bounds, _ := s.Document().Bounds()
	log.WithFields(log.Fields{
		"file":    path,
		"sheet":   s.Document().SheetID,
		"range":   s.Document().UsedRange(),
		"density": fmt.Sprintf("%.2f", bounds.Density()),
		"records": len(s.Records()),
	}).Debug("Imported workbook")
	return s, nil
}

func exportFile(s *flowsheet.Session, path string, fresh bool) error {
	opts := flowsheet.DefaultOptions()
	if fresh {
		preserve := false
		opts.PreserveFormatting = &preserve
	}
	data, err := s.Export(opts)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.WithFields(log.Fields{
		"file":    path,
		"records": len(s.Records()),
	}).Info("Wrote workbook")
	return nil
}

func newExtractCmd() *cobra.Command {
	var outputPath string
	var pretty, rawDates bool

	cmd := &cobra.Command{
		Use:   "extract <input.xlsx>",
		Short: "Print the records of a workbook as JSON, or write them as JSON, CSV or Parquet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := importFile(args[0])
			if err != nil {
				return err
			}
			records := s.Records()

			if outputPath == "" {
				data, err := output.ToJSON(records, pretty)
				if err != nil {
					return fmt.Errorf("serialization failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			var format output.Formatter
			if !rawDates {
				sys := s.Document().DateSystem()
				format = func(r models.Record, field string) string {
					return s.Layout.Display(r, field, sys)
				}
			}
			if err := output.WriteFile(outputPath, records, pretty, format); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			log.WithFields(log.Fields{"file": outputPath, "records": len(records)}).Info("Wrote records")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path, .json, .csv or .parquet (default: JSON on stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&rawDates, "raw-dates", false, "Write date serials instead of formatted dates to CSV")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var outputPath string
	var fresh bool

	cmd := &cobra.Command{
		Use:   "apply <input.xlsx> <records.(json|parquet)>",
		Short: "Write an edited record list back into a workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := importFile(args[0])
			if err != nil {
				return err
			}
			records, err := output.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := s.Replace(records); err != nil {
				return err
			}
			return exportFile(s, outputPath, fresh)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Write a new single-sheet workbook instead of editing the input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newSetStatusCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "set-status <input.xlsx> <id|label> <status>",
		Short: "Change the status of one record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := models.ParseStatus(args[2])
			if !ok {
				return fmt.Errorf("invalid status: %s (must be one of %v)", args[2], models.Statuses)
			}
			s, err := importFile(args[0])
			if err != nil {
				return err
			}
			r, err := s.Find(args[1])
			if err != nil {
				return err
			}
			if err := s.SetStatus(r.ID, status); err != nil {
				return err
			}
			return exportFile(s, outputPath, false)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newBoardCmd() *cobra.Command {
	var outputPath, storePath string

	cmd := &cobra.Command{
		Use:   "board <input.xlsx>",
		Short: "Edit statuses on an interactive terminal board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := importFile(args[0])
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = args[0]
			}

			st, closeStore, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			saved, err := st.Load(ctx)
			if err != nil {
				return err
			}
			if len(saved) > 0 {
				restored, dropped, err := s.Restore(saved)
				if err != nil {
					return fmt.Errorf("stored records: %w", err)
				}
				fields := log.Fields{"restored": restored, "dropped": dropped}
				if db, ok := st.(*store.SQLiteStore); ok {
					if counts, err := db.CountByStatus(ctx); err == nil {
						fields["stored"] = counts
					}
				}
				entry := log.WithFields(fields)
				if dropped > 0 {
					entry.Warn("Stored records do not match the workbook rows; dropped")
				} else {
					entry.Debug("Loaded records from store")
				}
			}

			save := func(s *flowsheet.Session) (string, error) {
				if err := exportFile(s, outputPath, false); err != nil {
					return "", err
				}
				if err := st.Save(ctx, s.Records()); err != nil {
					return "", err
				}
				return outputPath, nil
			}

			// keep log lines from tearing the board
			log.SetLevel(log.WarnLevel)
			_, err = tea.NewProgram(board.New(s, save), tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Workbook written on save (default: the input file)")
	cmd.Flags().StringVar(&storePath, "store", "", "Record store: .json file, or .db/.sqlite database")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr, storePath string
	var maxUpload int64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import, edit and export API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := resolveLayout()
			if err != nil {
				return err
			}
			opts := []server.Option{server.WithMaxUpload(maxUpload)}
			if storePath != "" {
				st, closeStore, err := store.Open(storePath)
				if err != nil {
					return err
				}
				defer closeStore()
				opts = append(opts, server.WithStore(st))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(l, opts...).Router(),
				ReadHeaderTimeout: 2 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Infof("listening for HTTP on: %s", srv.Addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			signalChan := make(chan os.Signal, 1)
			signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-signalChan:
				log.Info("Signalled, shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&storePath, "store", "", "Record store: .json file, or .db/.sqlite database")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", server.DefaultMaxUpload, "Maximum workbook upload size in bytes")
	return cmd
}

func newDateCmd() *cobra.Command {
	var use1904 bool

	cmd := &cobra.Command{
		Use:   "date <serial|yyyy-mm-dd>",
		Short: "Convert between spreadsheet date serials and calendar dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := serial.System1900
			if use1904 {
				sys = serial.System1904
			}
			out, err := convertDate(args[0], sys)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&use1904, "1904", false, "Use the 1904 date system")
	return cmd
}

func convertDate(arg string, sys serial.System) (string, error) {
	if n, err := strconv.ParseFloat(arg, 64); err == nil {
		d, err := sys.ToDate(n)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	}
	d, err := serial.ParseDate(arg)
	if err != nil {
		return "", err
	}
	n, err := sys.FromDate(d)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

func newLayoutCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the active layout as a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := resolveLayout()
			if err != nil {
				return err
			}
			data, err := layout.Marshal(layout.FromLayout(l), layout.Format(format))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(layout.FormatYAML), "Output syntax: yaml or toml")
	return cmd
}
