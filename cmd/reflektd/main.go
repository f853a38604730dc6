// reflektd runs the accounting engine against in-memory collaborators for
// local simulation: a fixed-rate exchange, a currency bank, periodic payout
// sweeps, and a Prometheus metrics endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	reflekt "github.com/reflektlabs/reflekt-go"
	"github.com/reflektlabs/reflekt-go/config"
	"github.com/reflektlabs/reflekt-go/metrics"
	"github.com/reflektlabs/reflekt-go/shared"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPathFlag := flag.String("config", "reflekt.json", "path to the engine parameters JSON document")
	listenFlag := flag.String("listen", ":9475", "metrics listen address")
	sweepIntervalFlag := flag.Duration("sweep-interval", 30*time.Second, "interval between automatic payout sweeps")
	sweepBudgetFlag := flag.Int("sweep-budget", shared.DefaultSweepBudget, "maximum accounts visited per sweep")
	swapRateFlag := flag.Int64("sim-swap-rate-bps", 9_000, "simulated exchange output per fee token, in bps")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	raw, err := os.ReadFile(*configPathFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(raw)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	bank := newSimBank()
	ex := &simExchange{rateBps: *swapRateFlag, bank: bank, source: cfg.Token.Pair}
	payer := &bankPayer{bank: bank, source: cfg.Token.FeeVault}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}

	engine := reflekt.NewEngine(cfg, ex, payer, bank, clock, log, m)
	log.Info("engine constructed",
		"supply", cfg.Token.InitialSupply,
		"admin", cfg.Token.Admin,
		"pair", cfg.Token.Pair)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *listenFlag, Handler: mux}
	go func() {
		log.Info("metrics listening", "addr", *listenFlag)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "err", err)
			stop()
		}
	}()

	ticker := clock.NewTicker(*sweepIntervalFlag)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.Chan():
			res, err := engine.Sweep(*sweepBudgetFlag)
			if err != nil {
				log.Error("sweep aborted", "visited", res.Visited, "paid", res.Paid, "err", err)
				continue
			}
			if res.Visited > 0 {
				snap, err := engine.Token.Ledger().Snapshot()
				if err != nil {
					log.Error("ledger snapshot failed", "err", err)
					continue
				}
				log.Debug("sweep complete",
					"visited", res.Visited, "paid", res.Paid, "cursor", res.Cursor,
					"per_share_whole", snap.PerShareWhole,
					"deposited", snap.TotalDeposited,
					"holders", snap.EligibleHolders)
			}
		}
	}
}

// simBank is an in-memory quote-currency ledger with an unlimited faucet
// account, standing in for the host environment's native currency.
type simBank struct {
	balances map[solana.PublicKey]*big.Int
}

func newSimBank() *simBank {
	return &simBank{balances: make(map[solana.PublicKey]*big.Int)}
}

func (b *simBank) balanceOf(addr solana.PublicKey) *big.Int {
	if v, ok := b.balances[addr]; ok {
		return v
	}
	return big.NewInt(0)
}

func (b *simBank) Transfer(from, to solana.PublicKey, amount *big.Int) error {
	if amount.Sign() < 0 {
		return shared.ErrParamOutOfRange
	}
	src := new(big.Int).Set(b.balanceOf(from))
	if src.Cmp(amount) < 0 {
		return shared.ErrInsufficientBalance
	}
	b.balances[from] = src.Sub(src, amount)
	b.balances[to] = new(big.Int).Add(b.balanceOf(to), amount)
	return nil
}

// Credit seeds simulation accounts.
func (b *simBank) Credit(addr solana.PublicKey, amount *big.Int) {
	b.balances[addr] = new(big.Int).Add(b.balanceOf(addr), amount)
}

// simExchange converts fee tokens to currency at a fixed rate and credits
// the recipient through the bank.
type simExchange struct {
	rateBps int64
	bank    *simBank
	source  solana.PublicKey
}

func (e *simExchange) Quote(amountIn *big.Int) (*big.Int, error) {
	out := new(big.Int).Mul(amountIn, big.NewInt(e.rateBps))
	return out.Div(out, big.NewInt(shared.MaxBasisPoint)), nil
}

func (e *simExchange) SwapForCurrency(amountIn, minOut *big.Int, recipient solana.PublicKey) (*big.Int, error) {
	out, _ := e.Quote(amountIn)
	if out.Cmp(minOut) < 0 {
		return nil, fmt.Errorf("slippage: out %s below min %s", out, minOut)
	}
	e.bank.Credit(recipient, out)
	return out, nil
}

// bankPayer pays reward claims out of the fee vault's currency balance.
type bankPayer struct {
	bank   *simBank
	source solana.PublicKey
}

func (p *bankPayer) Pay(account solana.PublicKey, amount *big.Int) error {
	return p.bank.Transfer(p.source, account, amount)
}
