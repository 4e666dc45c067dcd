package task

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySummary_RoundTripsThroughCBOR(t *testing.T) {
	reg := NewRegistry()
	reg.Register("producer", "producer_result", false)
	consumer := reg.Register("consumer", "", true)
	consumer.reserveStep()
	consumer.addGlobal("consumer_var1_y", nil, nil)

	want := reg.Summary()

	var buf bytes.Buffer
	require.NoError(t, WriteCache(&buf, want))

	got, err := ReadCache(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestRegistrySummary_DiffReportsAddedAndRemoved(t *testing.T) {
	prev := RegistrySummary{Tasks: []TaskSummary{{Name: "a"}, {Name: "b"}}}
	cur := RegistrySummary{Tasks: []TaskSummary{{Name: "b"}, {Name: "c"}}}

	added, removed := cur.Diff(prev)
	assert.ElementsMatch(t, []string{"c"}, added)
	assert.ElementsMatch(t, []string{"a"}, removed)
}
