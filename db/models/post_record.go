package models

import (
	"encoding/json"
	"fmt"
)

// Status is the processing state of one pipeline stage for one post. A flag
// only ever moves NotProcessed -> Finished.
type Status int

const (
	NotProcessed Status = iota
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "FINISHED"
	}
	return "NOT_PROCESSED"
}

// StatusFromBool maps a parsed classification flag onto a status value.
func StatusFromBool(b bool) Status {
	if b {
		return Finished
	}
	return NotProcessed
}

// EncodeStatus converts a status to its stored text token.
func EncodeStatus(s Status) string {
	if s == Finished {
		return "1"
	}
	return "0"
}

// DecodeStatus parses a stored status token. Legacy archives stored the
// membership flag as a Python bool repr, so those tokens are accepted too.
func DecodeStatus(value string) (Status, error) {
	switch value {
	case "0", "False", "false":
		return NotProcessed, nil
	case "1", "True", "true":
		return Finished, nil
	}
	return NotProcessed, fmt.Errorf("unrecognized status token %q", value)
}

// StatusColumn names one of the four per-post status columns.
type StatusColumn string

const (
	ColMembership      StatusColumn = "membership"
	ColOriginNotify    StatusColumn = "origin_notify"
	ColTranslateNotify StatusColumn = "translate_notify"
	ColMediaDownload   StatusColumn = "media_download"
)

// Valid reports whether the column is part of the closed status-column set.
// Column names end up in SQL, so anything outside the set is rejected.
func (c StatusColumn) Valid() bool {
	switch c {
	case ColMembership, ColOriginNotify, ColTranslateNotify, ColMediaDownload:
		return true
	}
	return false
}

// PostRecord is the domain representation of one archived post. Everything
// but the four status flags is immutable after insert.
type PostRecord struct {
	ID              uint
	PostID          string
	FetchTime       string
	RawContent      map[string]any
	Links           []string
	Membership      Status
	OriginNotify    Status
	TranslateNotify Status
	MediaDownload   Status
}

// PostRow is the persisted shape of a PostRecord. Structured fields are
// stored as JSON text and status flags as text tokens; the conversion lives
// entirely in Row/Record below.
type PostRow struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	PostID          string `gorm:"column:pid;not null"`
	FetchTime       string `gorm:"column:fetch_time"`
	RawContent      string `gorm:"column:raw_content"`
	Links           string `gorm:"column:links"`
	Membership      string `gorm:"column:membership"`
	OriginNotify    string `gorm:"column:origin_notify"`
	TranslateNotify string `gorm:"column:translate_notify"`
	MediaDownload   string `gorm:"column:media_download"`
}

// Row encodes a record for storage. The store assigns the sequence id, so
// the record's ID is not carried over.
func (r *PostRecord) Row() (*PostRow, error) {
	rawContent, err := json.Marshal(r.RawContent)
	if err != nil {
		return nil, fmt.Errorf("encode raw content: %w", err)
	}
	links := r.Links
	if links == nil {
		links = []string{}
	}
	encodedLinks, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("encode links: %w", err)
	}
	return &PostRow{
		PostID:          r.PostID,
		FetchTime:       r.FetchTime,
		RawContent:      string(rawContent),
		Links:           string(encodedLinks),
		Membership:      EncodeStatus(r.Membership),
		OriginNotify:    EncodeStatus(r.OriginNotify),
		TranslateNotify: EncodeStatus(r.TranslateNotify),
		MediaDownload:   EncodeStatus(r.MediaDownload),
	}, nil
}

// Record decodes a stored row back into its domain form.
func (r *PostRow) Record() (*PostRecord, error) {
	rec := &PostRecord{
		ID:        r.ID,
		PostID:    r.PostID,
		FetchTime: r.FetchTime,
	}
	if r.RawContent != "" {
		if err := json.Unmarshal([]byte(r.RawContent), &rec.RawContent); err != nil {
			return nil, fmt.Errorf("decode raw content: %w", err)
		}
	}
	if r.Links != "" {
		if err := json.Unmarshal([]byte(r.Links), &rec.Links); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
	}
	var err error
	if rec.Membership, err = DecodeStatus(r.Membership); err != nil {
		return nil, fmt.Errorf("decode membership: %w", err)
	}
	if rec.OriginNotify, err = DecodeStatus(r.OriginNotify); err != nil {
		return nil, fmt.Errorf("decode origin_notify: %w", err)
	}
	if rec.TranslateNotify, err = DecodeStatus(r.TranslateNotify); err != nil {
		return nil, fmt.Errorf("decode translate_notify: %w", err)
	}
	if rec.MediaDownload, err = DecodeStatus(r.MediaDownload); err != nil {
		return nil, fmt.Errorf("decode media_download: %w", err)
	}
	return rec, nil
}
