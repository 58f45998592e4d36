// Command hpackstat analyzes how efficiently HTTP/2 HPACK compression
// handles JWT-bearing headers, from a tshark field export or a
// synthetic trace.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cvalentine99/hpackstat/internal/analysis"
	"github.com/cvalentine99/hpackstat/internal/config"
	"github.com/cvalentine99/hpackstat/internal/jwtcodec"
	"github.com/cvalentine99/hpackstat/internal/logging"
	"github.com/cvalentine99/hpackstat/internal/models"
	"github.com/cvalentine99/hpackstat/internal/report"
	"github.com/cvalentine99/hpackstat/internal/simulate"
	"github.com/cvalentine99/hpackstat/internal/trace"
)

var rootCmd = &cobra.Command{
	Use:   "hpackstat",
	Short: "HPACK indexing and byte-savings analysis for JWT-bearing HTTP/2 headers",
}

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newJWTCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hpackstat: %v\n", err)
		os.Exit(1)
	}
}

// initLogging configures the process logger from options and flags.
func initLogging(opts *config.Options, verbose bool) {
	level := logging.LevelInfo
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	if verbose {
		level = logging.LevelDebug
	}
	logging.Init(&logging.Config{
		Level:  level,
		Output: os.Stderr,
		Format: opts.LogFormat,
	})
}

func newAnalyzeCmd() *cobra.Command {
	var (
		asJSON    bool
		verbose   bool
		threshold int
		budgets   []int
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a tshark field export (frame|stream|name|value|repr lines)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.DefaultOptions()
			if threshold > 0 {
				opts.SignatureLengthThreshold = threshold
			}
			if len(budgets) > 0 {
				opts.TableBudgets = budgets
			}
			initLogging(opts, verbose)

			var in io.Reader = os.Stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open trace: %w", err)
				}
				defer f.Close()
				in = f
			}

			engine := analysis.NewEngine(opts)
			reader := trace.NewReader(in)
			reader.OnSkip = func(line int, reason string) {
				engine.RecordSkip(0, fmt.Sprintf("line %d: %s", line, reason))
			}

			if err := reader.ForEach(cmd.Context(), engine.Process); err != nil {
				return fmt.Errorf("replay trace: %w", err)
			}

			return render(cmd.OutOrStdout(), engine.Finalize(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().IntVar(&threshold, "sig-threshold", 0, "minimum value length for signature fallback classification")
	cmd.Flags().IntSliceVar(&budgets, "table-budgets", nil, "dynamic-table budgets (bytes) for capacity projections")

	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		asJSON    bool
		verbose   bool
		sessions  int
		requests  int
		tableSize uint32
		modeStr   string
		elide     bool
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic JWT trace through a real HPACK encoder and analyze it",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.DefaultOptions()
			initLogging(opts, verbose)

			mode, err := simulate.ParseMode(modeStr)
			if err != nil {
				return err
			}

			gen := simulate.New(simulate.Config{
				Sessions:           sessions,
				RequestsPerSession: requests,
				TableSize:          tableSize,
				Mode:               mode,
				Seed:               seed,
				ElideIndexedNames:  elide,
			})

			events, err := gen.Events()
			if err != nil {
				return fmt.Errorf("generate trace: %w", err)
			}

			engine := analysis.NewEngine(opts)
			if err := engine.ProcessAll(events); err != nil {
				return fmt.Errorf("replay trace: %w", err)
			}

			return render(cmd.OutOrStdout(), engine.Finalize(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().IntVar(&sessions, "sessions", 10, "number of distinct sessions")
	cmd.Flags().IntVar(&requests, "requests", 20, "requests per session")
	cmd.Flags().Uint32Var(&tableSize, "table-size", 4096, "encoder dynamic-table size in bytes")
	cmd.Flags().StringVar(&modeStr, "mode", "bearer", "header scheme: bearer or decomposed")
	cmd.Flags().BoolVar(&elide, "elide-names", false, "blank names on fully indexed events")
	cmd.Flags().Int64Var(&seed, "seed", 1, "generator seed")

	return cmd
}

func newJWTCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Decompose or reassemble a JWT the way the forwarding services do",
	}
	cmd.AddCommand(newJWTDecomposeCmd())
	cmd.AddCommand(newJWTReassembleCmd())
	return cmd
}

func newJWTDecomposeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompose <token>",
		Short: "Split a JWT into header, raw JSON payload and signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if t, ok := jwtcodec.FromBearer(token); ok {
				token = t
			}
			c, err := jwtcodec.Decompose(token)
			if err != nil {
				return err
			}
			out := struct {
				*jwtcodec.Components
				Sizes map[string]int `json:"sizes"`
			}{c, jwtcodec.ComponentSizes(c)}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newJWTReassembleCmd() *cobra.Command {
	var header, payload, signature string

	cmd := &cobra.Command{
		Use:   "reassemble",
		Short: "Rebuild a JWT from its decomposed parts",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwtcodec.Reassemble(&jwtcodec.Components{
				Header:    header,
				Payload:   payload,
				Signature: signature,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&header, "header", "", "base64url header segment (defaults to the deployment constant)")
	cmd.Flags().StringVar(&payload, "payload", "", "raw JSON payload")
	cmd.Flags().StringVar(&signature, "signature", "", "base64url signature segment")
	cmd.MarkFlagRequired("payload")
	cmd.MarkFlagRequired("signature")

	return cmd
}

func render(w io.Writer, rep *models.Report, asJSON bool) error {
	if asJSON {
		return report.RenderJSON(w, rep)
	}
	return report.RenderText(w, rep)
}
