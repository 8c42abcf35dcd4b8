package viewer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Message
		wantErr error
	}{
		{"toggle", `{"type": "selectionToggled", "bib": 7}`, SelectionToggled{Bib: 7}, nil},
		{"remove", `{"type": "runnerRemoved", "bib": 12}`, RunnerRemoved{Bib: 12}, nil},
		{"sort", `{"type": "sortRequested", "column": "miles"}`, SortRequested{Column: ColumnMiles}, nil},
		{"resize int", `{"type": "panelResized", "percent": 25}`, PanelResized{Percent: 25}, nil},
		{"resize float", `{"type": "panelResized", "percent": 33.3}`, PanelResized{Percent: 33.3}, nil},
		{"missing bib", `{"type": "selectionToggled"}`, nil, ErrInvalidMessage},
		{"bib as string", `{"type": "selectionToggled", "bib": "7"}`, nil, ErrInvalidMessage},
		{"unknown column", `{"type": "sortRequested", "column": "Shoe"}`, nil, ErrInvalidMessage},
		{"missing percent", `{"type": "panelResized"}`, nil, ErrInvalidMessage},
		{"unknown type", `{"type": "dance"}`, nil, ErrUnknownMessage},
		{"no object", `[1,2]`, nil, ErrInvalidMessage},
		{"broken json", `{"type": `, nil, ErrInvalidMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessage([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DecodeMessage() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeMessage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
