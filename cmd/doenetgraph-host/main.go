// Command doenetgraph-host is a demo embedding host: it drives a document
// through its lifecycle from the command line, one subcommand per
// operation. Because a document's graph and freshness engine are not
// serializable, state crosses invocations only through an essential-cell
// dump file — the same wire format HandleAction-driven clients would use
// to persist a session between requests.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dqnykamp/doenetgraph"
	"github.com/dqnykamp/doenetgraph/internal/metrics"
)

var (
	markupPath     string
	essentialsIn   string
	essentialsOut  string
	actionJSON     string
	metricsAddr    string
	verboseLogging bool
)

var rootCmd = &cobra.Command{
	Use:   "doenetgraph-host",
	Short: "Drive a reactive document from the command line",
	Long: "doenetgraph-host builds and drives one document per invocation, reading its\n" +
		"markup and optional prior essential-cell state from files and writing\n" +
		"results (a render payload, an updated essential-cell dump) to stdout.",
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	var logger *zap.Logger
	var err error
	if verboseLogging {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	doenetgraph.SetLogger(logger)

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		doenetgraph.SetMetrics(metrics.NewPrometheusCollector(reg))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&markupPath, "markup", "m", "", "path to the document's markup JSON")
	rootCmd.PersistentFlags().StringVar(&essentialsIn, "essentials", "", "path to a prior essential-cell dump (optional)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :2112)")
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false, "enable development-mode logging")
	rootCmd.MarkPersistentFlagRequired("markup")

	createCmd.Flags().StringVarP(&essentialsOut, "essentials-out", "o", "", "path to write the new document's essential-cell dump (default: stdout)")
	renderCmd.Flags().StringVarP(&essentialsOut, "essentials-out", "o", "", "ignored; render never mutates state")
	actionCmd.Flags().StringVarP(&actionJSON, "action", "a", "", "the action JSON to dispatch")
	actionCmd.MarkFlagRequired("action")
	actionCmd.Flags().StringVarP(&essentialsOut, "essentials-out", "o", "", "path to write the updated essential-cell dump (default: stdout)")
	dumpCmd.Flags().StringVarP(&essentialsOut, "essentials-out", "o", "", "path to write the essential-cell dump (default: stdout)")

	rootCmd.AddCommand(createCmd, renderCmd, actionCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Build a document from markup and print its initial render payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHandle()
		if err != nil {
			return err
		}
		if err := writeRender(h); err != nil {
			return err
		}
		return writeEssentials(h)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Freshen a document and print its render payload without mutating state",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHandle()
		if err != nil {
			return err
		}
		return writeRender(h)
	},
}

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Dispatch one action against a document and print its updated state",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHandle()
		if err != nil {
			return err
		}
		actionID, err := h.HandleAction([]byte(actionJSON))
		if err != nil {
			return fmt.Errorf("dispatching action: %w", err)
		}
		fmt.Fprintf(os.Stderr, "action %s handled\n", actionID)
		if err := writeRender(h); err != nil {
			return err
		}
		return writeEssentials(h)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print a document's current essential-cell dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHandle()
		if err != nil {
			return err
		}
		return writeEssentials(h)
	},
}

func buildHandle() (*doenetgraph.Handle, error) {
	markup, err := os.ReadFile(markupPath)
	if err != nil {
		return nil, fmt.Errorf("reading markup: %w", err)
	}
	var essentials []byte
	if essentialsIn != "" {
		essentials, err = os.ReadFile(essentialsIn)
		if err != nil {
			return nil, fmt.Errorf("reading essentials: %w", err)
		}
	}
	h, warnings, captured, err := doenetgraph.Create(markup, essentials)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Component, w.Message)
	}
	for _, c := range captured {
		fmt.Fprintf(os.Stderr, "component error: %s: %s\n", c.Component, c.Message)
	}
	if err != nil {
		return nil, fmt.Errorf("building document: %w", err)
	}
	return h, nil
}

func writeRender(h *doenetgraph.Handle) error {
	payload, err := h.UpdateRenderers()
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	fmt.Println(string(payload))
	return nil
}

func writeEssentials(h *doenetgraph.Handle) error {
	dump, err := h.DumpEssentials()
	if err != nil {
		return fmt.Errorf("dumping essentials: %w", err)
	}
	if essentialsOut == "" {
		fmt.Fprintln(os.Stdout, string(dump))
		return nil
	}
	return os.WriteFile(essentialsOut, dump, 0o644)
}
