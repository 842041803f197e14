package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NOT_PROCESSED", NotProcessed.String())
	assert.Equal(t, "FINISHED", Finished.String())
}

func TestStatusFromBool(t *testing.T) {
	assert.Equal(t, Finished, StatusFromBool(true))
	assert.Equal(t, NotProcessed, StatusFromBool(false))
}

func TestEncodeDecodeStatus(t *testing.T) {
	tests := []struct {
		token   string
		want    Status
		wantErr bool
	}{
		{token: "0", want: NotProcessed},
		{token: "1", want: Finished},
		{token: "False", want: NotProcessed},
		{token: "True", want: Finished},
		{token: "false", want: NotProcessed},
		{token: "true", want: Finished},
		{token: "", wantErr: true},
		{token: "2", wantErr: true},
		{token: "FINISHED", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := DecodeStatus(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "0", EncodeStatus(NotProcessed))
	assert.Equal(t, "1", EncodeStatus(Finished))
}

func TestStatusColumnValid(t *testing.T) {
	for _, col := range []StatusColumn{ColMembership, ColOriginNotify, ColTranslateNotify, ColMediaDownload} {
		assert.True(t, col.Valid(), string(col))
	}
	assert.False(t, StatusColumn("pid").Valid())
	assert.False(t, StatusColumn("membership; DROP TABLE posts").Valid())
}

func TestRowRecordRoundTrip(t *testing.T) {
	rec := &PostRecord{
		PostID:     "UgxTest",
		FetchTime:  "20260829",
		RawContent: map[string]any{"post_id": "UgxTest", "n": float64(3)},
		Links:      []string{"https://example.com/a", ""},
		Membership: Finished,
	}

	row, err := rec.Row()
	require.NoError(t, err)
	assert.Equal(t, "1", row.Membership)
	assert.Equal(t, "0", row.OriginNotify)

	got, err := row.Record()
	require.NoError(t, err)
	assert.Equal(t, rec.PostID, got.PostID)
	assert.Equal(t, rec.FetchTime, got.FetchTime)
	assert.Equal(t, rec.RawContent, got.RawContent)
	assert.Equal(t, rec.Links, got.Links)
	assert.Equal(t, Finished, got.Membership)
	assert.Equal(t, NotProcessed, got.MediaDownload)
}

func TestRow_NilLinksEncodeAsEmptyList(t *testing.T) {
	rec := &PostRecord{PostID: "Ugx"}

	row, err := rec.Row()
	require.NoError(t, err)
	assert.Equal(t, "[]", row.Links)
}

func TestRecord_CorruptTokens(t *testing.T) {
	row := &PostRow{
		PostID:          "Ugx",
		RawContent:      "{}",
		Links:           "[]",
		Membership:      "0",
		OriginNotify:    "banana",
		TranslateNotify: "0",
		MediaDownload:   "0",
	}

	_, err := row.Record()
	assert.ErrorContains(t, err, "origin_notify")
}

func TestRecord_CorruptJSON(t *testing.T) {
	row := &PostRow{
		PostID:          "Ugx",
		RawContent:      "{not json",
		Membership:      "0",
		OriginNotify:    "0",
		TranslateNotify: "0",
		MediaDownload:   "0",
	}

	_, err := row.Record()
	assert.ErrorContains(t, err, "raw content")
}
