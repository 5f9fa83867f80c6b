package session

import (
	"encoding/json"
	"testing"
)

func TestKindJSONRoundTrip(t *testing.T) {
	tests := []struct {
		kind Kind
		json string
	}{
		{None, `""`},
		{Teleoperation, `"teleoperation"`},
		{Recording, `"recording"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.kind)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.kind, err)
		}
		if string(data) != tt.json {
			t.Errorf("marshal %v = %s, want %s", tt.kind, data, tt.json)
		}

		var got Kind
		if err := json.Unmarshal([]byte(tt.json), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.json, err)
		}
		if got != tt.kind {
			t.Errorf("unmarshal %s = %v, want %v", tt.json, got, tt.kind)
		}
	}
}

func TestKindUnknownString(t *testing.T) {
	var k Kind
	if err := json.Unmarshal([]byte(`"juggling"`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k != None {
		t.Errorf("unknown kind = %v, want None", k)
	}
}
