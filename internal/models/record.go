package models

import "time"

// RecordStatus is the explicit workflow state. The homeroom gate is a
// distinct status rather than a boolean flag so the transition table
// stays exhaustive.
type RecordStatus string

const (
	StatusPendingHomeroom RecordStatus = "pending_homeroom"
	StatusPending         RecordStatus = "pending"
	StatusApproved        RecordStatus = "approved"
	StatusRejected        RecordStatus = "rejected"
)

type Record struct {
	ID                 int64        `db:"id"`
	Kind               RecordKind   `db:"kind"`
	StudentID          int64        `db:"student_id"`
	CategoryID         int64        `db:"category_id"`
	RecordedBy         int64        `db:"recorded_by"`
	Description        string       `db:"description"`
	PhotoURL           *string      `db:"photo_url"`
	PointValue         int          `db:"point_value"`
	Status             RecordStatus `db:"status"`
	CounselorNote      *string      `db:"counselor_note"`
	AppealText         *string      `db:"appeal_text"`
	HomeroomApproverID *int64       `db:"homeroom_approver_id"`
	HomeroomApprovedAt *time.Time   `db:"homeroom_approved_at"`
	CreatedAt          time.Time    `db:"created_at"`
}

// RecordWithStudent joins listing fields the dashboards need.
type RecordWithStudent struct {
	Record
	StudentName    string `db:"student_name"`
	ClassName      string `db:"class_name"`
	CategoryName   string `db:"category_name"`
	RecordedByName string `db:"recorded_by_name"`
}

// SignedPoints is the ledger delta this record applies when approved.
func (r Record) SignedPoints() int {
	return r.Kind.Sign() * r.PointValue
}
