package entity

import (
	"encoding/json"
	"strings"
)

// TransactionRecord represents one on-chain transaction touching the scored address.
// Field names follow the Covalent transactions_v3 item shape.
type TransactionRecord struct {
	ToAddress string     `json:"to_address"`
	LogEvents []LogEvent `json:"log_events"`
}

// LogEvent represents one log entry emitted inside a transaction
type LogEvent struct {
	SenderAddress string        `json:"sender_address"`
	Decoded       *DecodedEvent `json:"decoded"`
}

// DecodedEvent is the interpreted form of a log entry. Nil on LogEvent when undecoded.
type DecodedEvent struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// Param represents a named argument of a decoded event
type Param struct {
	Name  string     `json:"name"`
	Value ParamValue `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler. A non-object record decodes to
// the zero value, a non-string address to "", a non-array log list to nil.
func (t *TransactionRecord) UnmarshalJSON(data []byte) error {
	*t = TransactionRecord{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	t.ToAddress = stringField(fields["to_address"])
	t.LogEvents = listField[LogEvent](fields["log_events"])
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. Decoded stays nil unless it is an object.
func (e *LogEvent) UnmarshalJSON(data []byte) error {
	*e = LogEvent{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	e.SenderAddress = stringField(fields["sender_address"])

	if raw := fields["decoded"]; len(raw) > 0 {
		if _, ok := objectFields(raw); ok {
			e.Decoded = &DecodedEvent{}
			_ = e.Decoded.UnmarshalJSON(raw)
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A non-string name keeps its raw text.
func (d *DecodedEvent) UnmarshalJSON(data []byte) error {
	*d = DecodedEvent{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	d.Name = textField(fields["name"])
	d.Params = listField[Param](fields["params"])
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Param) UnmarshalJSON(data []byte) error {
	*p = Param{}
	fields, ok := objectFields(data)
	if !ok {
		return nil
	}
	p.Name = textField(fields["name"])
	if raw, ok := fields["value"]; ok {
		_ = p.Value.UnmarshalJSON(raw)
	}
	return nil
}

// ParamValue holds a decoded parameter value as text.
// Strings decode verbatim, any other JSON value decodes to its raw text.
type ParamValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ParamValue(s)
		return nil
	}

	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = ""
		return nil
	}
	*v = ParamValue(raw)
	return nil
}

// String returns the parameter value
func (v ParamValue) String() string {
	return string(v)
}

// EventName returns the decoded event name, or an empty string for undecoded events
func (e LogEvent) EventName() string {
	if e.Decoded == nil {
		return ""
	}
	return e.Decoded.Name
}

// HasParams reports whether the event was decoded with a parameter list
func (e LogEvent) HasParams() bool {
	return e.Decoded != nil && e.Decoded.Params != nil
}
