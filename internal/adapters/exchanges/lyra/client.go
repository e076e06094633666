package lyra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lyrasnap/internal/adapters/exchanges"
	"lyrasnap/internal/adapters/exchanges/ratelimit"
	"lyrasnap/internal/adapters/exchanges/retry"
	"lyrasnap/internal/metrics"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

const (
	exchangeName    = "lyra"
	defaultBaseURL  = "https://api.lyra.finance"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 1000

	methodGetAllInstruments = "public/get_all_instruments"
	methodGetInstrument     = "public/get_instrument"
	methodGetTickers        = "public/get_tickers"

	instrumentTypeOption = "option"
)

// Config configures the Lyra client.
type Config struct {
	BaseURL  string
	PageSize int

	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Retry      *retry.Middleware
}

// Client talks to the public Lyra REST API. All endpoints are unauthenticated JSON POSTs.
type Client struct {
	cfg Config
	log *logger.Logger
}

var _ exchanges.OptionsExchange = (*Client)(nil)

// NewClient creates a new Lyra adapter instance.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 || cfg.PageSize > defaultPageSize {
		cfg.PageSize = defaultPageSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(exchangeName, 0)
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.New(retry.DefaultConfig(0))
	}

	return &Client{
		cfg: cfg,
		log: logger.Get().With("component", "lyra_client"),
	}
}

func (c *Client) Name() string {
	return exchangeName
}

// ListInstruments pages through get_all_instruments until the last page.
func (c *Client) ListInstruments(ctx context.Context, currency string) ([]exchanges.InstrumentSummary, error) {
	if currency == "" {
		return nil, errors.Wrap(exchanges.ErrInvalidRequest, "currency is required")
	}

	var out []exchanges.InstrumentSummary
	for page := 1; ; page++ {
		params := map[string]interface{}{
			"currency":        currency,
			"expired":         false,
			"instrument_type": instrumentTypeOption,
			"page":            page,
			"page_size":       c.cfg.PageSize,
		}

		var res instrumentsResult
		if err := c.call(ctx, methodGetAllInstruments, params, &res); err != nil {
			return nil, err
		}
		if isAbsent(res.Instruments) {
			return nil, errors.NewMissingFieldError("result.instruments")
		}

		var entries []instrumentEntry
		if err := json.Unmarshal(res.Instruments, &entries); err != nil {
			return nil, errors.NewShapeError("result.instruments", "array of objects", jsonKind(res.Instruments))
		}
		for _, e := range entries {
			out = append(out, exchanges.InstrumentSummary{
				Name:     e.InstrumentName,
				Type:     e.InstrumentType,
				IsActive: isTrue(e.IsActive),
			})
		}

		if len(entries) == 0 || page >= res.Pagination.NumPages {
			break
		}
	}

	c.log.Debugw("Listed instruments", "currency", currency, "count", len(out))
	return out, nil
}

// GetInstrument fetches static metadata of one option instrument.
func (c *Client) GetInstrument(ctx context.Context, name string) (*exchanges.OptionInstrument, error) {
	if name == "" {
		return nil, errors.Wrap(exchanges.ErrInvalidRequest, "instrument name is required")
	}

	var res instrumentResult
	if err := c.call(ctx, methodGetInstrument, map[string]interface{}{"instrument_name": name}, &res); err != nil {
		return nil, err
	}

	details, err := parseOptionDetails(res.OptionDetails)
	if err != nil {
		return nil, errors.Wrapf(err, "instrument %s", name)
	}

	return &exchanges.OptionInstrument{
		Name:          res.InstrumentName,
		Index:         details.index,
		Type:          res.InstrumentType,
		IsActive:      isTrue(res.IsActive),
		OptionType:    exchanges.OptionType(details.optionType),
		Strike:        details.strike,
		ExpiryUnix:    details.expiry,
		TickSize:      res.TickSize.Float(),
		MinimumAmount: res.MinimumAmount.Float(),
		AmountStep:    res.AmountStep.Float(),
		MakerFeeRate:  res.MakerFeeRate.Float(),
		TakerFeeRate:  res.TakerFeeRate.Float(),
	}, nil
}

// GetTickers fetches live quotes of every option of one expiry in a single call.
func (c *Client) GetTickers(ctx context.Context, currency, expiry string) (map[string]exchanges.OptionTicker, error) {
	if currency == "" || expiry == "" {
		return nil, errors.Wrap(exchanges.ErrInvalidRequest, "currency and expiry are required")
	}

	params := map[string]interface{}{
		"currency":        currency,
		"instrument_type": instrumentTypeOption,
		"expiry_date":     expiry,
	}

	var res map[string]json.RawMessage
	if err := c.call(ctx, methodGetTickers, params, &res); err != nil {
		return nil, err
	}

	tickers, err := parseTickers(res["tickers"])
	if err != nil {
		return nil, errors.Wrapf(err, "tickers %s %s", currency, expiry)
	}

	c.log.Debugw("Fetched tickers", "currency", currency, "expiry", expiry, "count", len(tickers))
	return tickers, nil
}

// call performs one rate-limited, retried JSON-RPC style POST and decodes result into target.
func (c *Client) call(ctx context.Context, method string, params interface{}, target interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return errors.Wrapf(err, "encode %s params", method)
	}

	start := time.Now()
	var result json.RawMessage
	err = c.cfg.Retry.Do(ctx, func() error {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		result, callErr = c.post(ctx, method, body)
		return callErr
	})
	metrics.RecordExchangeAPICall(exchangeName, method, time.Since(start), err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(result, target); err != nil {
		return errors.NewShapeError(method+".result", fmt.Sprintf("%T", target), jsonKind(result))
	}
	return nil
}

func (c *Client) post(ctx context.Context, method string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: lyra %s: %w", errors.ErrExchangeUnavailable, method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", method)
	}

	if resp.StatusCode >= 400 {
		return nil, &exchanges.APIError{
			Exchange:   exchangeName,
			Method:     method,
			HTTPStatus: resp.StatusCode,
			Message:    truncate(string(respBody), 512),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, errors.NewShapeError(method, "JSON object", jsonKind(respBody))
	}
	if env.Error != nil {
		return nil, &exchanges.APIError{
			Exchange: exchangeName,
			Method:   method,
			Code:     env.Error.Code,
			Message:  env.Error.Message,
		}
	}
	if isAbsent(env.Result) {
		return nil, errors.NewMissingFieldError(method + ".result")
	}
	return env.Result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
