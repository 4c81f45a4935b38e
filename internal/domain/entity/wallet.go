package entity

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrRequestNotObject is returned when a score request document is not a JSON object
var ErrRequestNotObject = errors.New("score request must be a JSON object")

// BalanceRecord represents one held asset valued in the quote currency (USD).
// Extra fields of the Covalent balances_v2 item are ignored.
type BalanceRecord struct {
	Quote Quote `json:"quote"`
}

// UnmarshalJSON implements json.Unmarshaler. A non-object record decodes to a zero quote.
func (b *BalanceRecord) UnmarshalJSON(data []byte) error {
	*b = BalanceRecord{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	if raw, ok := fields["quote"]; ok {
		_ = b.Quote.UnmarshalJSON(raw)
	}
	return nil
}

// Quote is a USD-equivalent balance value.
// Numbers and numeric strings decode to their value; null, negative, non-finite
// and non-numeric values decode to zero without failing the enclosing document.
type Quote float64

// UnmarshalJSON implements json.Unmarshaler
func (q *Quote) UnmarshalJSON(data []byte) error {
	*q = 0

	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	*q = NewQuote(v)
	return nil
}

// NewQuote returns v as a Quote, mapping values that cannot be a balance to zero
func NewQuote(v float64) Quote {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return Quote(v)
}

// Float64 returns the quote as a float64
func (q Quote) Float64() float64 {
	return float64(q)
}

// Snapshot is the activity data of one address handed to the scoring engine
type Snapshot struct {
	Address      string              `json:"address"`
	Balances     []BalanceRecord     `json:"balances"`
	Transactions []TransactionRecord `json:"transactions"`
}

// ItemsResponse mirrors the Covalent response envelope {"data": {"items": [...]}}
type ItemsResponse[T any] struct {
	Data *ItemsData[T] `json:"data"`
}

// ItemsData is the "data" member of ItemsResponse
type ItemsData[T any] struct {
	Items []T `json:"items"`
}

// UnmarshalJSON implements json.Unmarshaler. A non-object data member leaves Data nil
// and a non-array items member decodes to no items.
func (r *ItemsResponse[T]) UnmarshalJSON(data []byte) error {
	*r = ItemsResponse[T]{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	if dataFields, ok := objectFields(fields["data"]); ok {
		r.Data = &ItemsData[T]{Items: listField[T](dataFields["items"])}
	}
	return nil
}

// Items returns the wrapped items, or nil when the envelope carries none
func (r *ItemsResponse[T]) Items() []T {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Items
}

// ScoreRequest is the inbound request envelope accepted over NATS and HTTP.
// Raw Covalent response bodies may be passed instead of (or in addition to) the flat lists.
type ScoreRequest struct {
	Address              string                            `json:"address"`
	Balances             []BalanceRecord                   `json:"balances"`
	Transactions         []TransactionRecord               `json:"transactions"`
	BalancesResponse     *ItemsResponse[BalanceRecord]     `json:"balances_response,omitempty"`
	TransactionsResponse *ItemsResponse[TransactionRecord] `json:"transactions_response,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. The envelope itself must be an object;
// wrongly typed members decode to their zero value and are left to address validation.
func (r *ScoreRequest) UnmarshalJSON(data []byte) error {
	*r = ScoreRequest{}
	fields, ok := objectFields(data)
	if !ok {
		return ErrRequestNotObject
	}

	r.Address = stringField(fields["address"])
	r.Balances = listField[BalanceRecord](fields["balances"])
	r.Transactions = listField[TransactionRecord](fields["transactions"])

	if _, ok := objectFields(fields["balances_response"]); ok {
		r.BalancesResponse = &ItemsResponse[BalanceRecord]{}
		_ = r.BalancesResponse.UnmarshalJSON(fields["balances_response"])
	}
	if _, ok := objectFields(fields["transactions_response"]); ok {
		r.TransactionsResponse = &ItemsResponse[TransactionRecord]{}
		_ = r.TransactionsResponse.UnmarshalJSON(fields["transactions_response"])
	}
	return nil
}

// Snapshot flattens the request into the engine input
func (r *ScoreRequest) Snapshot() Snapshot {
	balances := make([]BalanceRecord, 0, len(r.Balances))
	balances = append(balances, r.Balances...)
	balances = append(balances, r.BalancesResponse.Items()...)

	transactions := make([]TransactionRecord, 0, len(r.Transactions))
	transactions = append(transactions, r.Transactions...)
	transactions = append(transactions, r.TransactionsResponse.Items()...)

	return Snapshot{
		Address:      r.Address,
		Balances:     balances,
		Transactions: transactions,
	}
}
