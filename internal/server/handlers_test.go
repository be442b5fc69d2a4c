package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
)

func TestWithLimit(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no limit gets one appended",
			in:   "SELECT * FROM transaction_fact",
			want: "SELECT * FROM transaction_fact LIMIT 50",
		},
		{
			name: "existing limit is kept",
			in:   "SELECT * FROM transaction_fact LIMIT 5",
			want: "SELECT * FROM transaction_fact LIMIT 5",
		},
		{
			name: "lowercase limit is recognized",
			in:   "select * from dim_user limit 10",
			want: "select * from dim_user limit 10",
		},
		{
			name: "column named limit does not count",
			in:   "SELECT limit_amount FROM transaction_fact",
			want: "SELECT limit_amount FROM transaction_fact LIMIT 50",
		},
		{
			name: "limit in subquery does not bound the outer statement",
			in:   "SELECT * FROM (SELECT * FROM transaction_fact LIMIT 5) t",
			want: "SELECT * FROM (SELECT * FROM transaction_fact LIMIT 5) t LIMIT 50",
		},
		{
			name: "trailing limit with offset is kept",
			in:   "SELECT * FROM transaction_fact LIMIT 5 OFFSET 10",
			want: "SELECT * FROM transaction_fact LIMIT 5 OFFSET 10",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, withLimit(tc.in, 50))
		})
	}
}

func TestQueryLimitBounds(t *testing.T) {
	h := &Handlers{}
	assert.Equal(t, constants.DefaultQueryLimit, h.queryLimit())

	h.QueryLimit = 250
	assert.Equal(t, 250, h.queryLimit())

	h.QueryLimit = constants.MaxQueryLimit * 10
	assert.Equal(t, constants.MaxQueryLimit, h.queryLimit())
}
