package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_GetIgnoresCase(t *testing.T) {
	r := NewRow([]string{"Id", "FirstName"}, []Value{Int(1), Text("Ada")})

	tests := []struct {
		key  string
		want Value
		ok   bool
	}{
		{key: "Id", want: Int(1), ok: true},
		{key: "id", want: Int(1), ok: true},
		{key: "ID", want: Int(1), ok: true},
		{key: "firstname", want: Text("Ada"), ok: true},
		{key: "FIRSTNAME", want: Text("Ada"), ok: true},
		{key: "LastName", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := r.Get(tt.key)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestRow_CollidingNamesKeepFirstPositionLastValue(t *testing.T) {
	r := NewRow([]string{"Name", "Id", "NAME"}, []Value{Text("first"), Int(9), Text("second")})

	assert.Equal(t, []string{"Name", "Id"}, r.Columns())
	assert.Equal(t, 2, r.Len())

	v, ok := r.Get("name")
	require.True(t, ok)
	assert.Equal(t, "second", v.String())
	assert.Equal(t, "second", r.At(0).String())
}

func TestColumnSet_SharedAcrossRows(t *testing.T) {
	cs := NewColumnSet([]string{"A", "B"})
	r1 := cs.Row([]Value{Int(1), Int(2)})
	r2 := cs.Row([]Value{Int(3), Null()})

	assert.Equal(t, cs.Names(), r1.Columns())
	assert.Equal(t, cs.Names(), r2.Columns())
	assert.Equal(t, []string{"3", "NULL"}, r2.Strings())
	assert.Equal(t, 2, cs.Len())
}

func TestRow_ZeroValue(t *testing.T) {
	var r Row
	_, ok := r.Get("anything")
	assert.False(t, ok)
	assert.Nil(t, r.Columns())
	assert.True(t, r.At(3).IsNull())
}

func TestRow_MarshalJSON(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewRow(
		[]string{"Zeta", "Alpha", "Blob", "Gone", "When", "Ok"},
		[]Value{Int(1), Text("x"), Binary([]byte{0xca, 0xfe}), Null(), Time(at), Bool(true)},
	)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"Zeta":1,"Alpha":"x","Blob":"0xcafe","Gone":null,"When":"2024-01-02T03:04:05Z","Ok":true}`,
		string(b),
	)
}

func TestQueryOutcome_Columns(t *testing.T) {
	assert.Nil(t, QueryOutcome{}.Columns())

	out := QueryOutcome{Rows: []Row{NewRow([]string{"a", "b"}, []Value{Int(1), Int(2)})}}
	assert.Equal(t, []string{"a", "b"}, out.Columns())
}
