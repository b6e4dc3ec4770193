package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"StockPicker/internal/analyzer"
	"StockPicker/internal/collector"
	"StockPicker/internal/config"
	"StockPicker/internal/notifier"
	"StockPicker/internal/opinion"
	"StockPicker/internal/pipeline"
	"StockPicker/internal/recorder"
	"StockPicker/internal/report"
)

// app holds the wired components for one process.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	runner   *pipeline.Runner
	telegram *notifier.TelegramNotifier
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}

// buildApp wires providers, screening and delivery from cfg. With notify
// false no delivery channels are attached.
func buildApp(cfg *config.Config, log zerolog.Logger, notify bool) (*app, error) {
	a := &app{cfg: cfg, log: log}

	market, err := newMarketData(cfg, log)
	if err != nil {
		return nil, err
	}
	holdings, err := newHoldings(cfg, market, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("market_data", market.Name()).Str("holdings", holdings.Name()).Msg("providers ready")

	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, err
	}
	start, err := cfg.StartDate()
	if err != nil {
		return nil, err
	}
	an := analyzer.New(market, rules, opinion.NewAnnotator(newCompleter(cfg), log),
		start, cfg.Interval(), analyzer.FundamentalsMode(cfg.MarketData.Fundamentals), log)

	agg := report.NewAggregator(holdings, an, cfg.HoldingsLimit, log)
	agg.Workers = cfg.Workers
	agg.Rule = rules.Name

	dispatcher := notifier.NewDispatcher(log)
	if notify {
		a.addNotifiers(dispatcher)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	a.runner = pipeline.NewRunner(agg, dispatcher, rec, cfg.ETFs, cfg.Notify.Subject, log)
	return a, nil
}

func newMarketData(cfg *config.Config, log zerolog.Logger) (collector.MarketData, error) {
	md := cfg.MarketData
	switch md.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy, md.RequestsPerSecond, log), nil
	case "relay":
		return collector.NewRelayFetcher(md.BaseURL, md.APIKey, cfg.Proxy, md.RequestsPerSecond, log), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown market data provider %q", md.Provider)
}

// newHoldings reuses the market data client when it also serves holdings.
func newHoldings(cfg *config.Config, market collector.MarketData, log zerolog.Logger) (collector.Holdings, error) {
	if h, ok := market.(collector.Holdings); ok && h.Name() == cfg.Holdings.Provider {
		return h, nil
	}
	md := cfg.MarketData
	switch cfg.Holdings.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy, md.RequestsPerSecond, log), nil
	case "relay":
		return collector.NewRelayFetcher(md.BaseURL, md.APIKey, cfg.Proxy, md.RequestsPerSecond, log), nil
	case "html":
		return collector.NewHTMLHoldings(cfg.Holdings.URLTemplate, cfg.Proxy, md.RequestsPerSecond, log), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown holdings provider %q", cfg.Holdings.Provider)
}

func newCompleter(cfg *config.Config) opinion.Completer {
	o := cfg.Opinion
	switch strings.ToLower(o.Provider) {
	case "huggingface":
		return opinion.NewHuggingFace(o.APIKey, o.Model, o.BaseURL)
	case "openai":
		return opinion.NewOpenAI(o.APIKey, o.Model, o.BaseURL)
	}
	return nil
}

func (a *app) addNotifiers(d *notifier.Dispatcher) {
	n := a.cfg.Notify
	if n.Telegram.Enabled {
		a.telegram = notifier.NewTelegramNotifier(n.Telegram.BotToken, n.Telegram.ChatID, a.cfg.Proxy, a.log)
		d.Add(a.telegram, "")
	}
	if n.Email.Enabled {
		d.Add(notifier.NewEmailNotifier(n.Email.Host, n.Email.Port, n.Email.Username, n.Email.Password, n.Email.From, n.Email.To, n.Email.TLS), "")
	}
	if n.WhatsApp.Enabled {
		d.Add(notifier.NewWhatsAppNotifier(n.WhatsApp.Token, n.WhatsApp.PhoneNumberID, n.WhatsApp.To, n.WhatsApp.APIVersion), "")
	}
	if n.AMQP.Enabled {
		an, err := notifier.DialAMQP(n.AMQP.URL, n.AMQP.Queue)
		if err != nil {
			a.log.Warn().Err(err).Msg("amqp unavailable, skipping publisher")
		} else {
			d.Add(an, "")
			a.closers = append(a.closers, an.Close)
		}
	}
	a.log.Info().Int("channels", d.Len()).Msg("notifiers ready")
}
