package annotations

import (
	"strings"
	"testing"
	"time"
)

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(nil)
	if c.Enabled() {
		t.Error("nil handler should disable the collector")
	}
	c.Emit(MethodTried, map[string]interface{}{"method": "x"})
	if len(c.Events()) != 0 {
		t.Error("disabled collector must record nothing")
	}
	if c.Data() != nil {
		t.Error("disabled collector should not hand out buffers")
	}
}

func TestCollectorEmit(t *testing.T) {
	var handled []Event
	c := NewCollector(func(e Event) { handled = append(handled, e) })

	data := c.Data()
	data["method"] = "take/by-position"
	c.Emit(MethodTried, data)
	c.Emit(PlanBacktrack, nil)

	if len(handled) != 2 {
		t.Fatalf("handler saw %d events, want 2", len(handled))
	}
	if handled[0].Name != MethodTried || handled[0].Data["method"] != "take/by-position" {
		t.Errorf("first event = %+v", handled[0])
	}
	if len(c.Events()) != 2 {
		t.Errorf("collector kept %d events, want 2", len(c.Events()))
	}
}

func TestCollectorSpan(t *testing.T) {
	var handled []Event
	c := NewCollector(func(e Event) { handled = append(handled, e) })

	done := c.Span(PlanInvoked, nil)
	time.Sleep(time.Millisecond)
	done()

	if len(handled) != 1 {
		t.Fatalf("handler saw %d events, want 1", len(handled))
	}
	if handled[0].Latency <= 0 {
		t.Error("span should measure a positive latency")
	}
}

func TestOutputFormatterFormats(t *testing.T) {
	f := NewOutputFormatter(nil)

	tests := []struct {
		event Event
		want  string
	}{
		{Event{Name: MethodTried, Data: map[string]interface{}{"method": "m", "todo": "t", "depth": 1}}, "trying m"},
		{Event{Name: PlanBacktrack, Data: map[string]interface{}{"todo": "t"}}, "backtrack"},
		{Event{Name: STNInconsistent, Data: map[string]interface{}{"error": "empty window"}}, "stn inconsistent"},
		{Event{Name: "unmapped/event", Data: nil}, "unmapped/event"},
	}
	for _, tt := range tests {
		if got := f.Format(tt.event); !strings.Contains(got, tt.want) {
			t.Errorf("Format(%s) = %q, want substring %q", tt.event.Name, got, tt.want)
		}
	}
}
