package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ragassist/internal/history"
	"github.com/Veraticus/ragassist/internal/mocks"
)

func TestPresent(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		showAll     bool
		wantShown   int
		wantHidden  int
		wantBanner  string
		wantToggle  history.Toggle
		wantEmpty   bool
		wantFirstAt int
	}{
		{
			name:      "empty log",
			count:     0,
			wantEmpty: true,
		},
		{
			name:      "under the window",
			count:     5,
			wantShown: 5,
		},
		{
			name:      "exactly the window",
			count:     6,
			wantShown: 6,
		},
		{
			name:      "show all is ignored under the window",
			count:     4,
			showAll:   true,
			wantShown: 4,
		},
		{
			name:        "collapsed",
			count:       7,
			wantShown:   6,
			wantHidden:  1,
			wantFirstAt: 1,
			wantBanner:  "Showing latest 3 Q&A pairs. Click 'Show All History' to see 1 earlier messages.",
			wantToggle:  history.Toggle{Offered: true, Label: "Show All History"},
		},
		{
			name:       "expanded",
			count:      7,
			showAll:    true,
			wantShown:  7,
			wantToggle: history.Toggle{Offered: true, ShowAll: true, Label: "Show Recent Only"},
		},
		{
			name:        "long collapsed",
			count:       20,
			wantShown:   6,
			wantHidden:  14,
			wantFirstAt: 14,
			wantBanner:  "Showing latest 3 Q&A pairs. Click 'Show All History' to see 14 earlier messages.",
			wantToggle:  history.Toggle{Offered: true, Label: "Show All History"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := mocks.Messages(tt.count)
			v := history.Present(messages, tt.showAll)

			assert.Equal(t, tt.count, v.Total)
			assert.Equal(t, tt.wantEmpty, v.Empty)
			assert.Len(t, v.Messages, tt.wantShown)
			assert.Equal(t, tt.wantHidden, v.Hidden)
			assert.Equal(t, tt.wantHidden > 0, v.Truncated())
			assert.Equal(t, tt.wantBanner, v.Banner)
			assert.Equal(t, tt.wantToggle, v.Toggle)

			if tt.wantShown > 0 {
				require.NotEmpty(t, v.Messages)
				assert.Equal(t, messages[tt.wantFirstAt], v.Messages[0])
				assert.Equal(t, messages[len(messages)-1], v.Messages[len(v.Messages)-1])
			}
		})
	}
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, 6, history.WindowSize)
}
