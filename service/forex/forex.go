package forex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	baseURL string = "https://api.fastforex.io/" // base URL of Forex API

	maxInFlight  = 5               // concurrent fetch-one requests
	fetchTimeout = time.Second * 3 // per request
)

var ErrNoRate = errors.New("no rate in response")

type Response struct {
	Base    string             `json:"base"`
	Results map[string]float64 `json:"result"`
	Updated string             `json:"updated"`
	Ms      int                `json:"ms"`
}

type client struct {
	baseURL     *url.URL      // Base URL for API requests
	httpClient  *http.Client  // HTTP client used to communicate with the API.
	rateLimiter *rate.Limiter // Rate limiter for forex api
}

// Option configures the client
type Option func(*client) error

// WithBaseURL points the client at another API root
func WithBaseURL(raw string) Option {
	return func(c *client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithRateLimit replaces the default limit of 10 requests per second burst
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *client) error {
		c.rateLimiter = rate.NewLimiter(limit, burst)
		return nil
	}
}

func New(apiKey string, opts ...Option) (service.Exchange, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	c := &client{
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
		httpClient: &http.Client{
			Transport: roundTripperFn(
				func(req *http.Request) (*http.Response, error) {

					params := req.URL.Query()
					params.Set("api_key", apiKey)
					req.URL.RawQuery = params.Encode()

					return http.DefaultTransport.RoundTrip(req)
				},
			),
		},
		baseURL: base,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (f *client) Do(ctx context.Context, req *http.Request, v interface{}) error {
	err := f.rateLimiter.Wait(ctx)
	if err != nil {
		return err
	}

	log.Debug().Str("url", req.URL.Path).Msg("fetching information from API")

	resp, err := f.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unable to fetch rate due to code: %d", resp.StatusCode)
	}

	decErr := json.NewDecoder(resp.Body).Decode(v)
	if decErr == io.EOF {
		decErr = nil // ignore EOF errors caused by empty response body
	}

	return decErr
}

// GetRate implements service.Exchange.
// GET /fetch-one?from=USD&to=EUR
func (f *client) GetRate(ctx context.Context, from, to string) (model.ExchangeRate, error) {
	u, err := f.baseURL.Parse("fetch-one")
	if err != nil {
		return model.ExchangeRate{}, err
	}

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return model.ExchangeRate{}, err
	}

	query := req.URL.Query()
	query.Add("from", from)
	query.Add("to", to)

	req.URL.RawQuery = query.Encode()

	r := &Response{}

	err = f.Do(ctx, req, r)
	if err != nil {
		return model.ExchangeRate{}, err
	}

	value, ok := r.Results[to]
	if !ok || value <= 0 {
		return model.ExchangeRate{}, fmt.Errorf("%s/%s: %w", from, to, ErrNoRate)
	}

	return model.ExchangeRate{
		Base:   from,
		Target: to,
		Rate:   value,
	}, nil
}

// GetAllRates implements service.Exchange.
// Issues one fetch-one per target, at most maxInFlight at a time.
// Targets that fail are logged and left out of the result; an error
// is returned only when nothing could be fetched.
func (f *client) GetAllRates(ctx context.Context, base string, targets []string) ([]model.RateEntry, error) {
	var (
		sem     = semaphore.NewWeighted(maxInFlight)
		wg      = sync.WaitGroup{}
		lock    sync.Mutex
		result  []model.RateEntry
		lastErr error
	)

	for _, target := range targets {
		if target == base {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("unable to acquire semaphore")
			lock.Lock()
			lastErr = err
			lock.Unlock()
			break
		}

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			defer sem.Release(1)

			fetchCtx, cancelFn := context.WithTimeout(ctx, fetchTimeout)
			defer cancelFn()

			er, err := f.GetRate(fetchCtx, base, target)

			lock.Lock()
			defer lock.Unlock()

			if err != nil {
				log.Error().Err(err).Str("base", base).Str("target", target).Msg("unable to fetch rate")
				lastErr = err
				return
			}

			result = append(result, model.RateEntry{Currency: er.Target, Rate: er.Rate})
		}(target)
	}

	wg.Wait()

	if len(result) == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })

	log.Debug().Int("count", len(result)).Msg("obtained rates for symbols")
	return result, nil
}

// Seeder loads initial rates for a set of currencies from an exchange
type Seeder struct {
	exchange service.Exchange
	base     string
	targets  []string
}

func NewSeeder(exchange service.Exchange, base string, targets []string) storage.Seeder {
	return &Seeder{
		exchange: exchange,
		base:     strings.ToUpper(base),
		targets:  targets,
	}
}

// Load implements storage.Seeder.
func (s *Seeder) Load(ctx context.Context) ([]model.RateEntry, error) {
	entries, err := s.exchange.GetAllRates(ctx, s.base, s.targets)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates relative to %s: %w", s.base, err)
	}

	return append([]model.RateEntry{{Currency: s.base, Rate: 1}}, entries...), nil
}

type roundTripperFn func(*http.Request) (*http.Response, error)

func (fn roundTripperFn) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}
