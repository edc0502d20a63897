package meminfo

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = `Applications Memory Usage (in Kilobytes):
Uptime: 3925671 Realtime: 3925671

** MEMINFO in pid 4321 [com.example.app] **

 App Summary
                       Pss(KB)
                        ------
           Java Heap:    59680
         Native Heap:   149108
                Code:    53184
               Stack:       92
            Graphics:   106300
       Private Other:    15928
              System:     8701

               TOTAL:   392993       TOTAL SWAP PSS:      128
`

func TestParse(t *testing.T) {
	snap, err := Parse(dump)
	require.NoError(t, err)

	assert.InDelta(t, 59680/1024.0, snap.JavaHeap, 1e-9)
	assert.InDelta(t, 149108/1024.0, snap.NativeHeap, 1e-9)
	assert.InDelta(t, 53184/1024.0, snap.Code, 1e-9)
	assert.InDelta(t, 92/1024.0, snap.Stack, 1e-9)
	assert.InDelta(t, 106300/1024.0, snap.Graphics, 1e-9)
	assert.InDelta(t, 15928/1024.0, snap.PrivateOther, 1e-9)
	assert.InDelta(t, 8701/1024.0, snap.System, 1e-9)
	assert.InDelta(t, 392993/1024.0, snap.Total, 1e-9)
	assert.Equal(t, dump, snap.Raw)
}

func TestParse_MissingEachLabel(t *testing.T) {
	labels := []string{
		"Java Heap", "Native Heap", "Code", "Stack",
		"Graphics", "Private Other", "System", "TOTAL",
	}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			raw := strings.Replace(dump, label+":", "Removed:", 1)
			snap, err := Parse(raw)
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.True(t, errors.Is(err, ErrMissingField))

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, label, missing.Label)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	require.ErrorIs(t, err, ErrMissingField)
}

func TestBreakdown(t *testing.T) {
	snap := &Snapshot{JavaHeap: 30, NativeHeap: 50, Code: 10, Graphics: 10, Total: 200}

	cats := snap.Breakdown()
	require.Len(t, cats, 7)
	assert.Equal(t, "Java Heap", cats[0].Name)
	assert.InDelta(t, 0.3, cats[0].Share, 1e-9)
	assert.InDelta(t, 0.5, cats[1].Share, 1e-9)
	assert.Zero(t, cats[3].Share)

	var sum float64
	for _, c := range cats {
		sum += c.Share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestBreakdown_Empty(t *testing.T) {
	for _, c := range (&Snapshot{}).Breakdown() {
		assert.Zero(t, c.Share)
	}
}
