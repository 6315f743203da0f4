package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/display"
	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/internal/services"
	"solana-portfolio-tracker/pkg/metrics"

	"github.com/google/subcommands"
)

func commands(cfg *config.Config) []subcommands.Command {
	return []subcommands.Command{
		&valueCmd{cfg: cfg, out: os.Stdout},
		&watchCmd{cfg: cfg, out: os.Stdout},
		&healthCmd{cfg: cfg, out: os.Stdout},
	}
}

type valueCmd struct {
	cfg     *config.Config
	out     io.Writer
	wallets string
	asJSON  bool
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value the tracked wallets once and print the breakdown" }
func (*valueCmd) Usage() string {
	return `portfolioctl value [-wallets <a,b,...>] [-json]

  Lists the SPL token holdings of every wallet, prices them on DexScreener
  and prints the per-wallet and total USD value.
`
}

func (p *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.wallets, "wallets", "", "Comma-separated wallet addresses. Defaults to PORTFOLIO_WALLETS.")
	f.BoolVar(&p.asJSON, "json", false, "Print the valuation as JSON.")
}

func (p *valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := *p.cfg
	if p.wallets != "" {
		cfg.Portfolio.Wallets = splitList(p.wallets)
	}
	if len(cfg.Portfolio.Wallets) == 0 {
		fmt.Fprintln(os.Stderr, "no wallets to value")
		return subcommands.ExitUsageError
	}

	service := services.NewPortfolioService(
		services.NewSolanaClient(&cfg.RPC),
		services.NewDexScreenerClient(&cfg.Price),
		&cfg,
		metrics.NewMetricsCollector(),
	)
	defer service.Stop()

	valuation := service.Calculate(ctx)
	if err := writeValuation(p.out, valuation, cfg.Portfolio.Goal, p.asJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeValuation prints v as a table, or as JSON when asJSON is set
func writeValuation(w io.Writer, v *models.Valuation, goal float64, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	total := v.Total.InexactFloat64()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WALLET\tHOLDINGS\tVALUE")
	for _, wv := range v.Wallets {
		if wv.Error != "" {
			fmt.Fprintf(tw, "%s\t-\terror: %s\n", wv.Address, wv.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", wv.Address, wv.Holdings, display.FormatCurrency(wv.Value.InexactFloat64()))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\n", display.FormatCurrency(total))
	fmt.Fprintf(tw, "GOAL\t\t%s (%.2f%%)\n", display.FormatCurrency(goal), display.ProgressPercent(total, goal))
	fmt.Fprintf(tw, "\t\t%s\n", display.Message(total, goal))
	return tw.Flush()
}

type watchCmd struct {
	cfg      *config.Config
	out      io.Writer
	url      string
	interval time.Duration
	count    int
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "poll a running tracker and print every value change" }
func (*watchCmd) Usage() string {
	return `portfolioctl watch [-url <endpoint>] [-interval <duration>] [-n <polls>]

  Polls the portfolio-value endpoint of a running tracker and prints one line
  per poll with the direction of the change.
`
}

func (p *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.url, "url", p.cfg.Display.Endpoint, "Portfolio value endpoint.")
	f.DurationVar(&p.interval, "interval", p.cfg.Display.PollInterval, "Time between polls.")
	f.IntVar(&p.count, "n", 0, "Stop after this many polls. 0 polls until interrupted.")
}

func (p *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.interval <= 0 {
		fmt.Fprintln(os.Stderr, "interval must be positive")
		return subcommands.ExitUsageError
	}

	fetcher := display.NewHTTPValueFetcher(p.url, p.cfg.Display.FetchTimeout)
	if err := watch(ctx, fetcher, p.out, p.interval, p.count, p.cfg.Portfolio.Goal); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

var arrows = map[display.ChangeDirection]string{
	display.DirectionUp:   "▲",
	display.DirectionDown: "▼",
	display.DirectionNone: "•",
}

// watch polls fetcher every interval, printing one line per successful poll.
// It stops after count polls when count is positive, or when ctx ends.
func watch(ctx context.Context, fetcher display.ValueFetcher, w io.Writer, interval time.Duration, count int, goal float64) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	state := display.InitialState()
	for polls := 0; count <= 0 || polls < count; polls++ {
		if polls > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

		value, err := fetcher.FetchValue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(w, "%s  fetch failed: %v\n", time.Now().Format(time.TimeOnly), err)
			continue
		}

		state = state.WithValue(value, goal, time.Now())
		fmt.Fprintf(w, "%s  %s %s  %s\n",
			state.UpdatedAt.Format(time.TimeOnly),
			arrows[state.Direction],
			display.FormatCurrency(state.Value),
			display.Message(state.Value, goal),
		)
	}
	return nil
}

type healthCmd struct {
	cfg *config.Config
	out io.Writer
}

func (*healthCmd) Name() string     { return "health" }
func (*healthCmd) Synopsis() string { return "check the Solana RPC node and the price API" }
func (*healthCmd) Usage() string {
	return `portfolioctl health

  Runs the upstream health checks the server exposes under /health.
`
}

func (*healthCmd) SetFlags(*flag.FlagSet) {}

func (p *healthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	upstreams := services.NewUpstreamHealthChecker()
	upstreams.Register(services.UpstreamSolanaRPC, services.NewSolanaClient(&p.cfg.RPC), true)
	upstreams.Register(services.UpstreamPriceAPI, services.NewDexScreenerClient(&p.cfg.Price), false)

	if writeHealth(p.out, upstreams.Names(), upstreams.CheckAll(ctx)) == services.HealthStatusUnhealthy {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeHealth prints one line per check in names order and returns the overall status
func writeHealth(w io.Writer, names []string, checks map[string]*services.HealthCheck) services.HealthStatus {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		hc := checks[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, hc.Status, hc.ResponseTime.Round(time.Millisecond), hc.Message)
	}
	overall := services.Overall(checks)
	fmt.Fprintf(tw, "overall\t%s\n", overall)
	tw.Flush()
	return overall
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
