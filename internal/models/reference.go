package models

import "time"

// Subject is read-only reference data from the shared school schema.
type Subject struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	NameKm string `db:"name_km" json:"name_km"`
	Code   string `db:"code" json:"code"`
}

// Class is read-only reference data from the shared school schema.
type Class struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	GradeLevel   int    `db:"grade_level" json:"grade_level"`
	AcademicYear string `db:"academic_year" json:"academic_year"`
}

// Student is read-only reference data; the engine only reads the roster.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	FullNameKm string    `db:"full_name_km" json:"full_name_km"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
