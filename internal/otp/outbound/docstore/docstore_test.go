package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestReadExpiry(t *testing.T) {
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		name string
		in   bson.RawValue
		want time.Time
	}{
		{
			name: "bson date",
			in:   rawOf(t, at),
			want: at,
		},
		{
			name: "rfc3339 string",
			in:   rawOf(t, at.Format(time.RFC3339)),
			want: at,
		},
		{
			name: "garbage string",
			in:   rawOf(t, "tomorrow-ish"),
			want: time.Time{},
		},
		{
			name: "number",
			in:   rawOf(t, int32(42)),
			want: time.Time{},
		},
		{
			name: "missing",
			in:   bson.RawValue{Type: bsontype.Null},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := readExpiry(tt.in)

			// Assert
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func rawOf(t *testing.T, v any) bson.RawValue {
	t.Helper()

	raw, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bson.Raw(raw).Lookup("v")
}
