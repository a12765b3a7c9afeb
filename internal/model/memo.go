package model

import "time"

// GeoPoint is a WGS84 coordinate.  Longitude comes first, matching the
// order used on the wire and in the spatial column.
type GeoPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Memo mirrors a row of the `memos` table.
type Memo struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemoPatch carries the optional fields of an update.  A nil field is left
// untouched.
type MemoPatch struct {
	Title    *string
	Content  *string
	Location *GeoPoint
}

// Empty reports whether the patch changes nothing.
func (p MemoPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Location == nil
}

// NearbyMemo is a memo annotated with its great-circle distance from the
// query point.
type NearbyMemo struct {
	Memo
	DistanceMeters float64 `json:"distance_meters"`
}

// MemoListQuery filters and paginates one owner's memos.  Page is 1-based.
type MemoListQuery struct {
	OwnerID  string
	Title    string // case-insensitive substring
	Page     int
	PageSize int
}

// MemoPage is one page of a listing plus the total match count.
type MemoPage struct {
	Memos    []Memo `json:"memos"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
