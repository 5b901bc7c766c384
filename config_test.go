package main

import (
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Config
		wantErr bool
	}{
		{
			name: "basic",
			input: "router-id 1\n" +
				"input-ports 2001, 2002\n" +
				"outputs 3001-1-2, 3002-3-3\n",
			want: &Config{
				RouterID:   1,
				InputPorts: []int{2001, 2002},
				Outputs: []OutputLink{
					{Port: 3001, Metric: 1, Neighbor: 2},
					{Port: 3002, Metric: 3, Neighbor: 3},
				},
			},
		},
		{
			name: "blank lines and comments ignored",
			input: "# router one\n" +
				"\n" +
				"router-id 7\n" +
				"  \n" +
				"# inputs\n" +
				"input-ports 2001\n" +
				"outputs 3001-5-2\n",
			want: &Config{
				RouterID:   7,
				InputPorts: []int{2001},
				Outputs:    []OutputLink{{Port: 3001, Metric: 5, Neighbor: 2}},
			},
		},
		{
			name:    "wrong line count",
			input:   "router-id 1\ninput-ports 2001\n",
			wantErr: true,
		},
		{
			name:    "router id out of range",
			input:   "router-id 0\ninput-ports 2001\noutputs 3001-1-2\n",
			wantErr: true,
		},
		{
			name:    "router id too big",
			input:   "router-id 64001\ninput-ports 2001\noutputs 3001-1-2\n",
			wantErr: true,
		},
		{
			name:    "input port below 1024",
			input:   "router-id 1\ninput-ports 80\noutputs 3001-1-2\n",
			wantErr: true,
		},
		{
			name:    "duplicate input port",
			input:   "router-id 1\ninput-ports 2001, 2001\noutputs 3001-1-2, 3002-1-3\n",
			wantErr: true,
		},
		{
			name:    "output metric out of range",
			input:   "router-id 1\ninput-ports 2001\noutputs 3001-17-2\n",
			wantErr: true,
		},
		{
			name:    "output metric zero",
			input:   "router-id 1\ninput-ports 2001\noutputs 3001-0-2\n",
			wantErr: true,
		},
		{
			name:    "output port reused as an input port",
			input:   "router-id 1\ninput-ports 2001, 3001\noutputs 3001-1-2, 3002-1-3\n",
			wantErr: true,
		},
		{
			name:    "outputs not one-to-one with input ports",
			input:   "router-id 1\ninput-ports 2001, 2002\noutputs 3001-1-2\n",
			wantErr: true,
		},
		{
			name:    "malformed output triple",
			input:   "router-id 1\ninput-ports 2001\noutputs 3001-1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() unexpected error: %v", err)
			}

			if got.RouterID != tt.want.RouterID {
				t.Errorf("RouterID = %d, want %d", got.RouterID, tt.want.RouterID)
			}
			if len(got.InputPorts) != len(tt.want.InputPorts) {
				t.Fatalf("InputPorts = %v, want %v", got.InputPorts, tt.want.InputPorts)
			}
			for i := range got.InputPorts {
				if got.InputPorts[i] != tt.want.InputPorts[i] {
					t.Errorf("InputPorts[%d] = %d, want %d", i, got.InputPorts[i], tt.want.InputPorts[i])
				}
			}
			if len(got.Outputs) != len(tt.want.Outputs) {
				t.Fatalf("Outputs = %v, want %v", got.Outputs, tt.want.Outputs)
			}
			for i := range got.Outputs {
				if got.Outputs[i] != tt.want.Outputs[i] {
					t.Errorf("Outputs[%d] = %+v, want %+v", i, got.Outputs[i], tt.want.Outputs[i])
				}
			}
		})
	}
}
