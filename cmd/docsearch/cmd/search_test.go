package cmd

import "testing"

func TestMergeBoosts(t *testing.T) {
	tests := []struct {
		name       string
		configured map[string]float64
		flags      map[string]string
		want       map[string]float64
		wantErr    bool
	}{
		{"empty", nil, nil, map[string]float64{}, false},
		{"config only", map[string]float64{"content": 2}, nil, map[string]float64{"content": 2}, false},
		{"flag overrides config", map[string]float64{"content": 2}, map[string]string{"content": "3.5"}, map[string]float64{"content": 3.5}, false},
		{"flag adds field", map[string]float64{"content": 2}, map[string]string{"filename": "1"}, map[string]float64{"content": 2, "filename": 1}, false},
		{"invalid weight", nil, map[string]string{"content": "heavy"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeBoosts(tt.configured, tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("mergeBoosts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("mergeBoosts() = %v, want %v", got, tt.want)
			}
			for field, weight := range tt.want {
				if got[field] != weight {
					t.Errorf("boost[%s] = %v, want %v", field, got[field], weight)
				}
			}
		})
	}
}
