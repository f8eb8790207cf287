// Package models defines the survey project document persisted by the
// engine: one Project owning SurveyRecords owning Photos by value. Full
// resolution images are not part of the document; a Photo references its
// blob by id.
package models

import (
	"math"
	"time"
)

// Project is the single live document and the unit of autosave.
type Project struct {
	ID               string         `json:"id"`
	SiteName         string         `json:"siteName"`
	OrganizationName string         `json:"companyName,omitempty"`
	GroupName        string         `json:"groupName"`
	Records          []SurveyRecord `json:"poles"`
}

// SurveyRecord is one physical point of interest.
type SurveyRecord struct {
	// ID is assigned once at creation and never changes.
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
	Photos    []Photo   `json:"photos"`
}

// QAStatus is the review state of a photo.
type QAStatus string

const (
	QAPending QAStatus = "PENDING"
	QAPassed  QAStatus = "PASSED"
	QARetake  QAStatus = "RETAKE"
)

// Valid reports whether s is one of the three review states.
func (s QAStatus) Valid() bool {
	switch s {
	case QAPending, QAPassed, QARetake:
		return true
	}
	return false
}

// Location is a WGS84 position.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Photo holds the inline preview tier of an image. The full-resolution tier
// lives in the blob store under the same ID when HasBlob is set.
type Photo struct {
	ID              string    `json:"id"`
	Preview         []byte    `json:"thumbnail"`
	CapturedAt      time.Time `json:"timestamp"`
	Status          QAStatus  `json:"status"`
	Remarks         string    `json:"remarks,omitempty"`
	CaptureLocation *Location `json:"captured,omitempty"`
	// Verification is the distance check of the capture location against
	// the record pin, e.g. "VERIFIED: 12.4m FROM PIN".
	Verification string `json:"verification,omitempty"`
	HasBlob      bool   `json:"isStoredInDB"`
}

// ValidCoordinates reports whether lat/lng are finite and within WGS84 range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
