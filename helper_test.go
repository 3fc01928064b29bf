package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDepthChanges(t *testing.T) {
	tests := []struct {
		name string
		log  *BookLog
		want []DepthChange
	}{
		{
			name: "open",
			log:  &BookLog{Type: LogTypeOpen, Side: Buy, Price: 100, Size: 5},
			want: []DepthChange{{Side: Buy, Price: 100, SizeDiff: 5}},
		},
		{
			name: "cancel",
			log:  &BookLog{Type: LogTypeCancel, Side: Sell, Price: 110, Size: 2},
			want: []DepthChange{{Side: Sell, Price: 110, SizeDiff: -2}},
		},
		{
			name: "match",
			log:  &BookLog{Type: LogTypeMatch, Size: 3, BidPrice: 105, AskPrice: 100},
			want: []DepthChange{
				{Side: Buy, Price: 105, SizeDiff: -3},
				{Side: Sell, Price: 100, SizeDiff: -3},
			},
		},
		{
			name: "amend",
			log:  &BookLog{Type: LogTypeAmend, Side: Sell, Price: 120, Size: 9, OldSide: Buy, OldPrice: 90, OldSize: 4},
			want: []DepthChange{{Side: Buy, Price: 90, SizeDiff: -4}},
		},
		{
			name: "reject",
			log:  &BookLog{Type: LogTypeReject, Side: Buy, Price: 100, Size: 1},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDepthChanges(tt.log))
		})
	}
}
