package schema

import (
	_ "embed"
	"sync"
)

//go:embed trading.toml
var tradingTOML []byte

var (
	tradingOnce  sync.Once
	tradingTable *Table
	tradingErr   error
)

// Trading returns the built-in trading schema (schema id 1, version 0). The
// table is parsed and validated once; callers get a private copy.
func Trading() (*Table, error) {
	tradingOnce.Do(func() {
		t, err := Parse(tradingTOML, FormatTOML)
		if err == nil {
			err = Validate(t)
		}
		tradingTable, tradingErr = t, err
	})
	if tradingErr != nil {
		return nil, tradingErr
	}
	return tradingTable.Clone(), nil
}

// MustTrading is Trading for callers that treat a broken built-in table as a
// programming error.
func MustTrading() *Table {
	t, err := Trading()
	if err != nil {
		panic(err)
	}
	return t
}

// TradingDocument returns the raw embedded TOML.
func TradingDocument() []byte {
	out := make([]byte, len(tradingTOML))
	copy(out, tradingTOML)
	return out
}

// Clone deep-copies t so callers can extend a table without touching shared
// state.
func (t *Table) Clone() *Table {
	out := *t
	out.Enums = make([]EnumSpec, len(t.Enums))
	for i, e := range t.Enums {
		e.Values = append([]EnumValue(nil), e.Values...)
		out.Enums[i] = e
	}
	out.Composites = make([]CompositeSpec, len(t.Composites))
	for i, c := range t.Composites {
		c.Fields = append([]FieldSpec(nil), c.Fields...)
		out.Composites[i] = c
	}
	out.Messages = make([]MessageSpec, len(t.Messages))
	for i, m := range t.Messages {
		m.Fields = append([]FieldSpec(nil), m.Fields...)
		m.Groups = cloneGroups(m.Groups)
		out.Messages[i] = m
	}
	return &out
}

func cloneGroups(groups []GroupSpec) []GroupSpec {
	if groups == nil {
		return nil
	}
	out := make([]GroupSpec, len(groups))
	for i, g := range groups {
		g.Fields = append([]FieldSpec(nil), g.Fields...)
		g.Groups = cloneGroups(g.Groups)
		out[i] = g
	}
	return out
}
