package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/confidence"
	"github.com/asheshgoplani/foldlens/internal/config"
	"github.com/asheshgoplani/foldlens/internal/render"
	"github.com/asheshgoplani/foldlens/internal/topics"
)

// explainAllLimit caps concurrent requests for explain --all
const explainAllLimit = 4

type explainOptions struct {
	format  string
	retries int
	delay   time.Duration
	all     bool
}

func newExplainCmd(flags *globalFlags) *cobra.Command {
	var opts explainOptions

	cmd := &cobra.Command{
		Use:   "explain [topic]",
		Short: "Explain a concept with a simple analogy",
		Example: `  foldlens explain pLDDT
  foldlens explain "binding affinity" --format markdown
  foldlens explain --all --retries 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all && len(args) > 0 {
				return errors.New("--all takes no topic")
			}
			if !opts.all && len(args) == 0 {
				return errors.New("a topic is required (see `foldlens topics`)")
			}

			cfg := loadConfig()
			explainer, err := newExplainer(cfg, flags)
			if err != nil {
				return err
			}
			catalog, err := topics.Load(cfg.GetUISettings().TopicsFile)
			if err != nil {
				return err
			}
			callOpts := callOptions(cmd, opts)
			style := cfg.GetUISettings().GlamourStyle
			out := cmd.OutOrStdout()

			if opts.all {
				return explainAll(cmd.Context(), out, explainer, catalog.All(), opts.format, style, callOpts)
			}

			topic, err := catalog.Resolve(strings.Join(args, " "))
			if err != nil {
				return err
			}
			text := explainer.Explain(cmd.Context(), topics.BuildPrompt(topic), callOpts...)
			return printExplanation(out, topics.Title(topic), text, opts.format, style)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", render.FormatText, "Output format: text, markdown or html")
	cmd.Flags().IntVarP(&opts.retries, "retries", "r", ai.DefaultRetries, "Retries after the first attempt (overrides config)")
	cmd.Flags().DurationVarP(&opts.delay, "delay", "d", ai.DefaultInitialDelay, "Initial backoff delay (overrides config)")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Explain every topic in the catalog")
	return cmd
}

// callOptions turns explicitly set flags into per-call overrides so config
// values apply otherwise
func callOptions(cmd *cobra.Command, opts explainOptions) []ai.CallOption {
	var out []ai.CallOption
	if cmd.Flags().Changed("retries") {
		out = append(out, ai.WithRetries(opts.retries))
	}
	if cmd.Flags().Changed("delay") {
		out = append(out, ai.WithInitialDelay(opts.delay))
	}
	return out
}

// explainAll runs one independent retry chain per topic and prints the
// results in catalog order
func explainAll(ctx context.Context, out io.Writer, explainer *ai.Explainer, all []topics.Topic, format, style string, callOpts []ai.CallOption) error {
	results := make([]string, len(all))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(explainAllLimit)
	for i, t := range all {
		g.Go(func() error {
			results[i] = explainer.Explain(ctx, topics.BuildPrompt(t), callOpts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, t := range all {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := printExplanation(out, topics.Title(t), results[i], format, style); err != nil {
			return err
		}
	}
	return nil
}

func printExplanation(out io.Writer, title, text, format, style string) error {
	if format == render.FormatMarkdown {
		text = "## " + title + "\n\n" + text
	}
	rendered, err := render.Format(text, format, terminalWidth(), style)
	if err != nil {
		return err
	}
	if format == render.FormatText || format == "" {
		fmt.Fprintln(out, title)
	}
	fmt.Fprintln(out, strings.TrimRight(rendered, "\n"))
	return nil
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Send a free-form question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			explainer, err := newExplainer(cfg, flags)
			if err != nil {
				return err
			}
			prompt := strings.Join(args, " ")
			text := explainer.Explain(cmd.Context(), prompt)
			rendered, err := render.Format(text, format, terminalWidth(), cfg.GetUISettings().GlamourStyle)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(rendered, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "Output format: text, markdown or html")
	return cmd
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics [query]",
		Short: "List topics, optionally fuzzy-filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := topics.Load(loadConfig().GetUISettings().TopicsFile)
			if err != nil {
				return err
			}
			found := catalog.Search(strings.Join(args, " "))
			if len(found) == 0 {
				return fmt.Errorf("%w: %q", topics.ErrUnknownTopic, strings.Join(args, " "))
			}
			printTopics(cmd.OutOrStdout(), found, terminalWidth())
			return nil
		},
	}
}

func printTopics(out io.Writer, list []topics.Topic, width int) {
	nameWidth := 0
	for _, t := range list {
		nameWidth = max(nameWidth, runewidth.StringWidth(t.Name))
	}
	for _, t := range list {
		analogy := render.Truncate(t.Analogy, width-nameWidth-2)
		fmt.Fprintf(out, "%s  %s\n", runewidth.FillRight(t.Name, nameWidth), analogy)
	}
}

func newConfidenceCmd() *cobra.Command {
	var (
		seed     int64
		affinity string
	)

	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Print the demo pLDDT summary and band counts, or an affinity report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if affinity != "" {
				cards, err := confidence.LoadAffinity(affinity)
				if err != nil {
					return err
				}
				printAffinity(out, cards)
				return nil
			}

			rng := rand.New(rand.NewSource(seed))
			s := confidence.Summarize(confidence.DemoPLDDT(rng, confidence.DemoResidues))

			fmt.Fprintf(out, "Residues:     %d\n", s.Residues)
			fmt.Fprintf(out, "Mean pLDDT:   %.1f\n", s.Mean)
			fmt.Fprintf(out, "Above 70:     %.0f%%\n", s.PctConfident)
			fmt.Fprintf(out, "Above 90:     %.0f%%\n", s.PctVeryHigh)
			for _, b := range []confidence.Band{
				confidence.BandVeryHigh, confidence.BandConfident, confidence.BandLow, confidence.BandVeryLow,
			} {
				fmt.Fprintf(out, "  %-10s %d\n", b, s.Bands[b])
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&seed, "seed", "s", 42, "Random seed for the demo data")
	cmd.Flags().StringVar(&affinity, "affinity", "", "Label the models in an affinity_<job>.json report")
	return cmd
}

func printAffinity(out io.Writer, cards []confidence.AffinityCard) {
	for i, c := range cards {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, c.Title)
		fmt.Fprintf(out, "  Hit discovery:   %.1f%%  %s\n", c.Probability*100, c.ProbabilityLabel())
		fmt.Fprintf(out, "  log10(IC50):     %.3f  %s\n", c.Value, c.AffinityLabel())
		fmt.Fprintf(out, "  Predicted IC50:  %.2f µM\n", c.IC50())
		fmt.Fprintf(out, "  ΔG:              %.2f kcal/mol\n", c.DeltaG())
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create config.toml",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.SaveUserConfig(config.DefaultUserConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.AddCommand(initCmd)
	return cmd
}
