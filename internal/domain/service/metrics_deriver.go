package service

import (
	"sort"
	"strings"

	"proofdrop-scorer/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Param names that carry the recipient of a transfer event
var transferRecipientParams = map[string]struct{}{
	"to":        {},
	"dst":       {},
	"recipient": {},
}

const (
	swapNameMarker    = "swap"
	transferEventName = "transfer"
	balancePrecision  = 2
)

// RouterRegistry is an immutable set of known DEX router addresses, stored lowercase
type RouterRegistry struct {
	routers map[string]struct{}
}

// NewRouterRegistry creates a registry from router addresses in any letter case
func NewRouterRegistry(addresses ...string) RouterRegistry {
	routers := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = normalizeAddress(addr)
		if addr == "" {
			continue
		}
		routers[addr] = struct{}{}
	}
	return RouterRegistry{routers: routers}
}

// Contains reports whether address is a known router, ignoring letter case
func (r RouterRegistry) Contains(address string) bool {
	address = normalizeAddress(address)
	if address == "" {
		return false
	}
	_, ok := r.routers[address]
	return ok
}

// Len returns the number of registered routers
func (r RouterRegistry) Len() int {
	return len(r.routers)
}

// Addresses returns the registered routers in sorted order
func (r RouterRegistry) Addresses() []string {
	out := make([]string, 0, len(r.routers))
	for addr := range r.routers {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// MetricsDeriver reduces raw balances and transactions to a Metrics record.
// It holds no mutable state and is safe for concurrent use.
type MetricsDeriver struct {
	routers RouterRegistry
}

// NewMetricsDeriver creates a deriver that recognises swaps routed through routers
func NewMetricsDeriver(routers RouterRegistry) *MetricsDeriver {
	return &MetricsDeriver{routers: routers}
}

// Derive computes the heuristic metrics of address.
// Governance votes, DeFi actions and externally sourced airdrop claims are left at zero;
// they are merged in later from supplemental providers.
func (d *MetricsDeriver) Derive(address string, balances []entity.BalanceRecord, txs []entity.TransactionRecord) entity.Metrics {
	subject := normalizeAddress(address)
	contracts := make(map[string]struct{})
	swaps := 0
	transfersIn := 0

	for _, tx := range txs {
		if to := normalizeAddress(tx.ToAddress); to != "" {
			contracts[to] = struct{}{}
		}

		for _, ev := range tx.LogEvents {
			sender := normalizeAddress(ev.SenderAddress)
			if sender != "" {
				contracts[sender] = struct{}{}
			}

			name := strings.ToLower(ev.EventName())
			if strings.Contains(name, swapNameMarker) {
				swaps++
			}
			// Evaluated independently of the name check: a router-emitted swap counts twice.
			if d.routers.Contains(sender) {
				swaps++
			}

			if name == transferEventName && ev.HasParams() && isTransferTo(ev.Decoded.Params, subject) {
				transfersIn++
			}
		}
	}

	return entity.Metrics{
		TotalUSDBalance:     sumQuotes(balances),
		DexSwapCount:        swaps,
		UniqueContractCount: len(contracts),
		AirdropsClaimed:     transfersIn,
	}
}

// isTransferTo checks the first recipient-like param against the subject address
func isTransferTo(params []entity.Param, subject string) bool {
	for _, p := range params {
		if _, ok := transferRecipientParams[p.Name]; !ok {
			continue
		}
		value := p.Value.String()
		return value != "" && strings.ToLower(value) == subject
	}
	return false
}

// sumQuotes adds all balance quotes and rounds the total to cents
func sumQuotes(balances []entity.BalanceRecord) float64 {
	total := decimal.Zero
	for _, b := range balances {
		q := entity.NewQuote(b.Quote.Float64())
		if q == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(q.Float64()))
	}
	return total.Round(balancePrecision).InexactFloat64()
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
