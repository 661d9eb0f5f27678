package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.IncCounter(TransactionsTotal, map[string]string{"command": "Set"}, 1)
	p.IncCounter(TransactionsTotal, map[string]string{"command": "Set"}, 2)
	p.IncCounter(TransactionsTotal, map[string]string{"command": "Get"}, 1)

	if got := testutil.ToFloat64(p.counters[TransactionsTotal].WithLabelValues("Set")); got != 3 {
		t.Fatalf("expected Set counter 3, got %v", got)
	}
	if got := testutil.ToFloat64(p.counters[TransactionsTotal].WithLabelValues("Get")); got != 1 {
		t.Fatalf("expected Get counter 1, got %v", got)
	}
}

func TestPrometheus_WriteText(t *testing.T) {
	p := NewPrometheus()
	p.SetGauge(NextTransactionID, nil, 7)
	p.ObserveHistogram(AppendDuration, nil, 0.002)

	var buf bytes.Buffer
	if err := p.WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"walkv_next_transaction_id 7",
		"walkv_wal_append_duration_seconds_count 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestNop(t *testing.T) {
	var c Collector = Nop{}
	c.IncCounter("x", nil, 1)
	c.SetGauge("x", nil, 1)
	c.ObserveHistogram("x", nil, 1)
}
