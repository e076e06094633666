package exchangefactory

import (
	"net/http"
	"strings"
	"sync"

	"lyrasnap/internal/adapters/config"
	"lyrasnap/internal/adapters/exchanges"
	"lyrasnap/internal/adapters/exchanges/lyra"
	"lyrasnap/internal/adapters/exchanges/ratelimit"
	"lyrasnap/internal/adapters/exchanges/retry"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

// Factory creates options exchange clients wired with rate limiting and retry.
// Clients are cached and shared across workers.
type Factory struct {
	lyraCfg config.LyraConfig
	clients map[string]exchanges.OptionsExchange
	mu      sync.Mutex
	log     *logger.Logger
}

// NewFactory creates a new exchange factory
func NewFactory(lyraCfg config.LyraConfig) *Factory {
	return &Factory{
		lyraCfg: lyraCfg,
		clients: make(map[string]exchanges.OptionsExchange),
		log:     logger.Get().With("component", "exchange_factory"),
	}
}

// GetClient returns the client for the named exchange
func (f *Factory) GetClient(exchange string) (exchanges.OptionsExchange, error) {
	exchange = strings.ToLower(exchange)

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[exchange]; ok {
		return client, nil
	}

	var client exchanges.OptionsExchange
	switch exchange {
	case "lyra":
		client = f.createLyraClient()
	default:
		return nil, errors.Wrapf(errors.ErrNotFound, "unsupported exchange: %s", exchange)
	}

	f.clients[exchange] = client
	f.log.Infof("Created options client for %s", exchange)
	return client, nil
}

// Lyra is a shortcut for GetClient("lyra")
func (f *Factory) Lyra() exchanges.OptionsExchange {
	client, _ := f.GetClient("lyra")
	return client
}

func (f *Factory) createLyraClient() exchanges.OptionsExchange {
	return lyra.NewClient(lyra.Config{
		BaseURL:    f.lyraCfg.BaseURL,
		PageSize:   f.lyraCfg.PageSize,
		HTTPClient: &http.Client{Timeout: f.lyraCfg.Timeout},
		Limiter:    ratelimit.NewLimiter("lyra", f.lyraCfg.RequestsPerMinute),
		Retry:      retry.New(retry.DefaultConfig(f.lyraCfg.MaxRetries)),
	})
}
