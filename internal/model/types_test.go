package model

import "testing"

func TestListingState_String(t *testing.T) {
	tests := []struct {
		state ListingState
		want  string
	}{
		{StateNone, "none"},
		{StateSale, "sale"},
		{StateAuction, "auction"},
		{ListingState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ListingState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
