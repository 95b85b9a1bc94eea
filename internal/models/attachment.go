package models

import "time"

type Position struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Attachment is a photo pinned to a map coordinate. PreviewURL starts
// null and is written at most once by the preview compositor.
type Attachment struct {
	ID         int64
	Latitude   float64
	Longitude  float64
	FileURL    string
	FileType   string
	PreviewURL *string
	UserID     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a Attachment) Position() Position {
	return Position{Lat: a.Latitude, Long: a.Longitude}
}

// AttachmentWithCreator pairs an attachment with a preview of the
// user who created it, for public feed responses.
type AttachmentWithCreator struct {
	Attachment Attachment
	Creator    User
}
