package models

import "testing"

func TestStatusMonotonicity(t *testing.T) {
	forward := []struct {
		from, to MarketStatus
	}{
		{MarketStatusOpen, MarketStatusEnded},
		{MarketStatusOpen, MarketStatusResolving},
		{MarketStatusEnded, MarketStatusResolving},
		{MarketStatusResolving, MarketStatusResolved},
		{MarketStatusResolved, MarketStatusResolved},
	}
	for _, tc := range forward {
		if !tc.from.CanAdvanceTo(tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	backward := []struct {
		from, to MarketStatus
	}{
		{MarketStatusEnded, MarketStatusOpen},
		{MarketStatusResolving, MarketStatusEnded},
		{MarketStatusResolved, MarketStatusOpen},
	}
	for _, tc := range backward {
		if tc.from.CanAdvanceTo(tc.to) {
			t.Errorf("%s -> %s must be rejected", tc.from, tc.to)
		}
	}

	if MarketStatus("bogus").CanAdvanceTo(MarketStatusOpen) {
		t.Error("unknown status must not advance")
	}
}

func TestOutcomeCodes(t *testing.T) {
	if OutcomeYes.Code() != 1 || OutcomeNo.Code() != 2 || OutcomeUndefined.Code() != 0 {
		t.Error("outcome codes out of line with the escrow contract")
	}

	if OutcomeFromCode(1) != OutcomeYes || OutcomeFromCode(2) != OutcomeNo {
		t.Error("round trip through outcome codes failed")
	}
	if OutcomeFromCode(0) != OutcomeUndefined || OutcomeFromCode(9) != OutcomeUndefined {
		t.Error("unknown codes must map to undefined")
	}
}
