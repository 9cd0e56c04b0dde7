package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderings(t *testing.T) {
	got := ParseOrderings(" name, -createdAt,,-")
	assert.Equal(t, []Ordering{{Field: "name", Ascending: true}, {Field: "createdAt"}}, got)
	assert.Equal(t, "createdAt DESC", got[1].String())
}

func TestOrder(t *testing.T) {
	type row struct{ name, dept string }
	keys := OrderKeys[row]{
		"name": func(r row) string { return r.name },
		"dept": func(r row) string { return r.dept },
	}
	rows := []row{{"b", "cs"}, {"a", "se"}, {"c", "cs"}}

	Order(rows, ParseOrderings("dept,-name"), keys)
	assert.Equal(t, []row{{"c", "cs"}, {"b", "cs"}, {"a", "se"}}, rows)

	// unknown fields are ignored
	Order(rows, ParseOrderings("salary"), keys)
	assert.Equal(t, []row{{"c", "cs"}, {"b", "cs"}, {"a", "se"}}, rows)
}
