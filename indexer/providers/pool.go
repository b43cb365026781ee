// Package providers maintains the health-tracked fabric of Ethereum JSON-RPC
// endpoints every other aavewatch component calls through: acquisition with
// chain-id gating, rotation on failure, per-endpoint statistics, and
// adaptive chunked log reads.
package providers

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/observerlabs/aavewatch/io/logs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "providers")

// ErrNoHealthyProviders is returned when every configured endpoint has been
// tried and rejected during a single acquisition.
var ErrNoHealthyProviders = errors.New("no healthy providers available")

// Record tracks the health of one endpoint across the lifetime of the
// process. Records are created once at startup and never destroyed.
type Record struct {
	URL           string
	SuccessCount  uint64
	ErrorCount    uint64
	LastSuccess   time.Time
	LastError     string
	responseTimes []float64 // rolling window, milliseconds
}

// Stats is the sortable per-endpoint statistics projection.
type Stats struct {
	URL           string  `json:"url"`
	SuccessCount  uint64  `json:"success_count"`
	ErrorCount    uint64  `json:"error_count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgResponseMs float64 `json:"avg_response_ms"`
	Total         uint64  `json:"total"`
}

// Pool vends JSON-RPC clients over a fixed endpoint list, rotating
// round-robin from the last successful endpoint with ascending error count
// as the tiebreaker.
type Pool struct {
	chainID        uint64
	baseTimeout    time.Duration
	attempts       int
	responseWindow int
	endpoints      []string

	hmu     sync.RWMutex
	records map[string]*Record
	lastIdx int

	smu    sync.Mutex
	sticky *ManagedClient
}

// Config for a pool. Endpoints must already have any API keys substituted.
type Config struct {
	Endpoints      []string
	ChainID        uint64
	BaseTimeout    time.Duration
	Attempts       int
	ResponseWindow int
}

// NewPool builds the pool and one health record per endpoint.
func NewPool(cfg *Config) (*Pool, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("no RPC endpoints configured")
	}
	p := &Pool{
		chainID:        cfg.ChainID,
		baseTimeout:    cfg.BaseTimeout,
		attempts:       cfg.Attempts,
		responseWindow: cfg.ResponseWindow,
		endpoints:      append([]string{}, cfg.Endpoints...),
		records:        make(map[string]*Record, len(cfg.Endpoints)),
		lastIdx:        -1,
	}
	for _, u := range cfg.Endpoints {
		p.records[u] = &Record{URL: u}
	}
	return p, nil
}

// Acquire returns a connected client whose remote chain id matched the
// configured one. Candidates are iterated round-robin from the endpoint
// after the last successful one, stably reordered by ascending error count.
// The dial timeout grows linearly with the attempt number. When sticky is
// set the returned client is cached and handed back on subsequent calls
// until a rotation; forceNew bypasses the cache.
func (p *Pool) Acquire(ctx context.Context, baseTimeout time.Duration, forceNew, sticky bool) (*ManagedClient, error) {
	if baseTimeout <= 0 {
		baseTimeout = p.baseTimeout
	}
	if sticky && !forceNew {
		p.smu.Lock()
		cached := p.sticky
		p.smu.Unlock()
		if cached != nil {
			return cached, nil
		}
	}

	for attempt, url := range p.candidates() {
		timeout := baseTimeout * time.Duration(attempt+1)
		client, err := p.dial(ctx, url, timeout)
		if err != nil {
			p.observe(url, time.Time{}, err)
			log.WithError(err).WithField("endpoint", logs.MaskCredentialsLogging(url)).Debug("Provider rejected")
			continue
		}
		p.markSuccess(url)
		providerAcquisitionsTotal.Inc()
		if sticky {
			p.smu.Lock()
			p.sticky = client
			p.smu.Unlock()
		}
		return client, nil
	}

	p.logStatusTable()
	return nil, ErrNoHealthyProviders
}

// Rotate abandons the current sticky client and acquires a fresh one.
func (p *Pool) Rotate(ctx context.Context) (*ManagedClient, error) {
	p.smu.Lock()
	if p.sticky != nil {
		p.sticky.close()
		p.sticky = nil
	}
	p.smu.Unlock()
	providerRotationsTotal.Inc()
	log.WithField("timeout", p.baseTimeout).Info("Rotating provider")
	return p.Acquire(ctx, p.baseTimeout, true, true)
}

// Sticky returns the cached client, acquiring one if needed.
func (p *Pool) Sticky(ctx context.Context) (*ManagedClient, error) {
	return p.Acquire(ctx, p.baseTimeout, false, true)
}

// candidates returns the endpoint iteration order for one acquisition:
// round-robin from the slot after the last success, then stably sorted by
// ascending error count so persistently failing endpoints sink.
func (p *Pool) candidates() []string {
	p.hmu.RLock()
	defer p.hmu.RUnlock()
	n := len(p.endpoints)
	ordered := make([]string, 0, n)
	start := (p.lastIdx + 1) % n
	for i := 0; i < n; i++ {
		ordered = append(ordered, p.endpoints[(start+i)%n])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return p.records[ordered[i]].ErrorCount < p.records[ordered[j]].ErrorCount
	})
	return ordered
}

func (p *Pool) dial(ctx context.Context, url string, timeout time.Duration) (*ManagedClient, error) {
	rpcClient, err := rpc.DialHTTPWithClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	eth := ethclient.NewClient(rpcClient)

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	chainID, err := eth.ChainID(probeCtx)
	if err != nil {
		eth.Close()
		return nil, errors.Wrap(err, "chain id probe")
	}
	if chainID == nil || chainID.Cmp(new(big.Int).SetUint64(p.chainID)) != 0 {
		eth.Close()
		return nil, errors.Errorf("wrong chain id %v, want %d", chainID, p.chainID)
	}
	return &ManagedClient{pool: p, url: url, eth: eth}, nil
}

func (p *Pool) markSuccess(url string) {
	p.hmu.Lock()
	defer p.hmu.Unlock()
	for i, u := range p.endpoints {
		if u == url {
			p.lastIdx = i
			break
		}
	}
	rec := p.records[url]
	rec.LastSuccess = time.Now()
}

// observe folds the outcome of one JSON-RPC call into the endpoint's record.
// A zero start time skips response-time tracking (used for failed dials).
func (p *Pool) observe(url string, start time.Time, err error) {
	p.hmu.Lock()
	defer p.hmu.Unlock()
	rec, ok := p.records[url]
	if !ok {
		return
	}
	if err != nil {
		rec.ErrorCount++
		rec.LastError = err.Error()
		providerErrorsTotal.WithLabelValues(hostLabel(url)).Inc()
		return
	}
	rec.SuccessCount++
	rec.LastSuccess = time.Now()
	if !start.IsZero() {
		ms := float64(time.Since(start)) / float64(time.Millisecond)
		rec.responseTimes = append(rec.responseTimes, ms)
		if len(rec.responseTimes) > p.responseWindow {
			rec.responseTimes = rec.responseTimes[len(rec.responseTimes)-p.responseWindow:]
		}
	}
	providerRequestsTotal.WithLabelValues(hostLabel(url)).Inc()
}

// Stats snapshots every record, sorted by total call count descending with
// success rate descending as the tiebreaker.
func (p *Pool) Stats() []Stats {
	p.hmu.RLock()
	defer p.hmu.RUnlock()
	out := make([]Stats, 0, len(p.records))
	for _, u := range p.endpoints {
		rec := p.records[u]
		total := rec.SuccessCount + rec.ErrorCount
		s := Stats{
			URL:          logs.MaskCredentialsLogging(u),
			SuccessCount: rec.SuccessCount,
			ErrorCount:   rec.ErrorCount,
			Total:        total,
		}
		if total > 0 {
			s.SuccessRate = float64(rec.SuccessCount) / float64(total)
		}
		if len(rec.responseTimes) > 0 {
			var sum float64
			for _, v := range rec.responseTimes {
				sum += v
			}
			s.AvgResponseMs = sum / float64(len(rec.responseTimes))
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].SuccessRate > out[j].SuccessRate
	})
	return out
}

// Probe dials every endpoint once and folds the outcome into the health
// records, reporting how many answered with the right chain id. BlockNumber
// doubles as the liveness call so response times get populated too.
func (p *Pool) Probe(ctx context.Context) int {
	healthy := 0
	for _, u := range p.endpoints {
		start := time.Now()
		client, err := p.dial(ctx, u, p.baseTimeout)
		if err != nil {
			p.observe(u, time.Time{}, err)
			log.WithError(err).WithField("endpoint", logs.MaskCredentialsLogging(u)).Warn("Probe failed")
			continue
		}
		p.observe(u, start, nil)
		if _, err := client.BlockNumber(ctx); err == nil {
			healthy++
		}
		client.close()
	}
	return healthy
}

// logStatusTable dumps the state of every endpoint; called when an
// acquisition exhausted the whole list.
func (p *Pool) logStatusTable() {
	for _, s := range p.Stats() {
		log.WithFields(logrus.Fields{
			"endpoint":    s.URL,
			"success":     s.SuccessCount,
			"errors":      s.ErrorCount,
			"successRate": fmt.Sprintf("%.1f%%", s.SuccessRate*100),
			"avgMs":       fmt.Sprintf("%.0f", s.AvgResponseMs),
		}).Warn("Provider status")
	}
}

// LastError exposes the most recent error message recorded for an endpoint.
func (p *Pool) LastError(url string) string {
	p.hmu.RLock()
	defer p.hmu.RUnlock()
	if rec, ok := p.records[url]; ok {
		return rec.LastError
	}
	return ""
}
