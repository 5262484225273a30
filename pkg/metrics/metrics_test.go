package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTogglesCounter(t *testing.T) {
	before := testutil.ToFloat64(Toggles.WithLabelValues(OutcomeUnknown))
	Toggles.WithLabelValues(OutcomeUnknown).Inc()
	if got := testutil.ToFloat64(Toggles.WithLabelValues(OutcomeUnknown)); got != before+1 {
		t.Errorf("Expected counter %v, got %v", before+1, got)
	}
}

func TestCrossStreetsGaugeCanGoNegative(t *testing.T) {
	CrossStreets.Set(-1)
	if got := testutil.ToFloat64(CrossStreets); got != -1 {
		t.Errorf("Expected -1, got %v", got)
	}
}
