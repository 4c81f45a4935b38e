package service

import (
	"encoding/json"
	"testing"

	"proofdrop-scorer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject = "0xaaaa000000000000000000000000000000000001"
	testRouter  = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
)

func event(sender, name string, params ...entity.Param) entity.LogEvent {
	ev := entity.LogEvent{SenderAddress: sender}
	if name != "" || params != nil {
		ev.Decoded = &entity.DecodedEvent{Name: name, Params: params}
	}
	return ev
}

func param(name, value string) entity.Param {
	return entity.Param{Name: name, Value: entity.ParamValue(value)}
}

func TestMetricsDeriver_Empty(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry(testRouter))

	m := d.Derive(testSubject, nil, nil)
	assert.Equal(t, entity.Metrics{}, m)
}

func TestMetricsDeriver_UniqueContracts(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry())

	txs := []entity.TransactionRecord{
		{ToAddress: "0xAbC"},
		{ToAddress: "0xabc", LogEvents: []entity.LogEvent{event("0xDEF", "Approval")}},
		{ToAddress: "", LogEvents: []entity.LogEvent{event("", "Approval"), event("0xdef", "")}},
	}

	m := d.Derive(testSubject, nil, txs)
	assert.Equal(t, 2, m.UniqueContractCount)
	assert.Equal(t, 0, m.DexSwapCount)
}

func TestMetricsDeriver_DexSwaps(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry(testRouter))

	tests := []struct {
		name string
		ev   entity.LogEvent
		want int
	}{
		{name: "swap from router counts twice", ev: event(testRouter, "Swap"), want: 2},
		{name: "router sender any case", ev: event("0x7A250D5630B4CF539739DF2C5DACB4C659F2488D", "Sync"), want: 1},
		{name: "swap substring from non-router", ev: event("0x01", "TokenSwapped"), want: 1},
		{name: "undecoded router event", ev: event(testRouter, ""), want: 1},
		{name: "unrelated event", ev: event("0x01", "Transfer"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []entity.TransactionRecord{{LogEvents: []entity.LogEvent{tt.ev}}}
			assert.Equal(t, tt.want, d.Derive(testSubject, nil, txs).DexSwapCount)
		})
	}
}

func TestMetricsDeriver_AirdropHeuristic(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry())
	upper := "0xAAAA000000000000000000000000000000000001"

	tests := []struct {
		name string
		ev   entity.LogEvent
		want int
	}{
		{name: "to param", ev: event("0x01", "Transfer", param("from", "0x02"), param("to", testSubject)), want: 1},
		{name: "checksummed recipient", ev: event("0x01", "Transfer", param("to", upper)), want: 1},
		{name: "dst param", ev: event("0x01", "Transfer", param("dst", testSubject)), want: 1},
		{name: "recipient param", ev: event("0x01", "Transfer", param("recipient", testSubject)), want: 1},
		{name: "event name any case", ev: event("0x01", "TRANSFER", param("to", testSubject)), want: 1},
		{name: "outgoing transfer", ev: event("0x01", "Transfer", param("from", testSubject), param("to", "0x02")), want: 0},
		{name: "only first recipient param is checked", ev: event("0x01", "Transfer", param("to", "0x02"), param("dst", testSubject)), want: 0},
		{name: "empty recipient", ev: event("0x01", "Transfer", param("to", "")), want: 0},
		{name: "no params", ev: event("0x01", "Transfer"), want: 0},
		{name: "other event", ev: event("0x01", "TransferSingle", param("to", testSubject)), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []entity.TransactionRecord{{LogEvents: []entity.LogEvent{tt.ev}}}
			assert.Equal(t, tt.want, d.Derive(testSubject, nil, txs).AirdropsClaimed)
		})
	}
}

func TestMetricsDeriver_SubjectCase(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry())
	txs := []entity.TransactionRecord{{LogEvents: []entity.LogEvent{
		event("0x01", "Transfer", param("to", testSubject)),
	}}}

	m := d.Derive("0xAAAA000000000000000000000000000000000001", nil, txs)
	assert.Equal(t, 1, m.AirdropsClaimed)
}

func TestMetricsDeriver_Balance(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry())

	tests := []struct {
		name     string
		balances []entity.BalanceRecord
		want     float64
	}{
		{name: "sum", balances: []entity.BalanceRecord{{Quote: 100.25}, {Quote: 49.75}}, want: 150},
		{name: "rounded to cents", balances: []entity.BalanceRecord{{Quote: 10.004}, {Quote: 0.003}}, want: 10.01},
		{name: "float noise removed", balances: []entity.BalanceRecord{{Quote: 0.1}, {Quote: 0.2}}, want: 0.3},
		{name: "zero quotes", balances: []entity.BalanceRecord{{}, {}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Derive(testSubject, tt.balances, nil).TotalUSDBalance)
		})
	}
}

func TestMetricsDeriver_MalformedQuotes(t *testing.T) {
	var balances []entity.BalanceRecord
	err := json.Unmarshal([]byte(`[
		{"quote": 12.5},
		{"quote": null},
		{"quote": "7.5"},
		{"quote": "n/a"},
		{"quote": -40},
		{"contract_name": "no quote"}
	]`), &balances)
	require.NoError(t, err)

	m := NewMetricsDeriver(NewRouterRegistry()).Derive(testSubject, balances, nil)
	assert.Equal(t, 20.0, m.TotalUSDBalance)
}

func TestMetricsDeriver_MalformedRecords(t *testing.T) {
	tests := []struct {
		name         string
		balances     string
		transactions string
		want         entity.Metrics
	}{
		{
			name:     "non-object balance",
			balances: `[{"quote": 5}, "junk", 3, null]`,
			want:     entity.Metrics{TotalUSDBalance: 5},
		},
		{
			name:     "object quote",
			balances: `[{"quote": {"v": 1}}, {"quote": 2}]`,
			want:     entity.Metrics{TotalUSDBalance: 2},
		},
		{
			name:         "numeric to_address",
			transactions: `[{"to_address": 123}, {"to_address": "0x01"}]`,
			want:         entity.Metrics{UniqueContractCount: 1},
		},
		{
			name:         "numeric decoded name",
			transactions: `[{"to_address": "0x01", "log_events": [{"sender_address": "0x01", "decoded": {"name": 5}}]}]`,
			want:         entity.Metrics{UniqueContractCount: 1},
		},
		{
			name: "object params",
			transactions: `[{"to_address": "0x01", "log_events": [
				{"sender_address": "0x01", "decoded": {"name": "Transfer", "params": {}}},
				{"sender_address": "0x02", "decoded": {"name": "Transfer", "params": [{"name": "to", "value": "` + testSubject + `"}]}}
			]}]`,
			want: entity.Metrics{UniqueContractCount: 2, AirdropsClaimed: 1},
		},
		{
			name:         "non-object transaction beside a swap",
			transactions: `["junk", {"to_address": "` + testRouter + `", "log_events": [7, {"sender_address": "` + testRouter + `", "decoded": {"name": "Swap"}}]}]`,
			want:         entity.Metrics{UniqueContractCount: 1, DexSwapCount: 2},
		},
	}

	d := NewMetricsDeriver(NewRouterRegistry(testRouter))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var balances []entity.BalanceRecord
			if tt.balances != "" {
				require.NoError(t, json.Unmarshal([]byte(tt.balances), &balances))
			}
			var txs []entity.TransactionRecord
			if tt.transactions != "" {
				require.NoError(t, json.Unmarshal([]byte(tt.transactions), &txs))
			}

			assert.Equal(t, tt.want, d.Derive(testSubject, balances, txs))
		})
	}
}

func TestMetricsDeriver_Deterministic(t *testing.T) {
	d := NewMetricsDeriver(NewRouterRegistry(testRouter))
	txs := []entity.TransactionRecord{
		{ToAddress: testRouter, LogEvents: []entity.LogEvent{event(testRouter, "Swap"), event("0x01", "Transfer", param("to", testSubject))}},
		{ToAddress: "0x02"},
	}
	balances := []entity.BalanceRecord{{Quote: 51}}

	first := d.Derive(testSubject, balances, txs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.Derive(testSubject, balances, txs))
	}
	assert.Equal(t, entity.Metrics{
		TotalUSDBalance:     51,
		DexSwapCount:        2,
		UniqueContractCount: 3,
		AirdropsClaimed:     1,
	}, first)
}

func TestRouterRegistry(t *testing.T) {
	r := NewRouterRegistry(" 0xABC ", "0xabc", "", "0xdef")

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains("0xAbC"))
	assert.False(t, r.Contains(""))
	assert.False(t, r.Contains("0x123"))
	assert.Equal(t, []string{"0xabc", "0xdef"}, r.Addresses())
}
