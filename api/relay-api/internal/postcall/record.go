// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rapidaai/intake-relay/pkg/utils"
)

const (
	SourcePhoneIntake = "Phone Call - AI Intake"
	LeadStatusNew     = "New Lead"
)

// Case types understood by the intake base.
const (
	CaseTypeVehicle        = "Vehicle or Pedestrian Accident"
	CaseTypeSlipFall       = "Slip/Fall in Public Place"
	CaseTypeWorkersComp    = "Workers Compensation"
	CaseTypeOtherInjury    = "Other Personal Injury"
	CaseTypeUnknown        = "Other"
	baseLeadScore          = 50
	maxLeadScore           = 100
	minPhoneLength         = 5
	minDetailedNotesLength = 20
)

// IntakeData is what the voice agent extracted during the call.
type IntakeData struct {
	Name         string
	Phone        string
	Email        string
	AccidentType string
	AccidentDate string
	ExtraNotes   string
	ConsentGiven string
	UrgencyFlag  string
}

// IntakeRecord is one lead produced by a finished call.
type IntakeRecord struct {
	Id               uint64    `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ConversationId   string    `json:"conversationId" gorm:"column:conversation_id;type:varchar(100);not null;index"`
	FirstName        string    `json:"firstName" gorm:"column:first_name;type:varchar(200);not null;default:''"`
	LastName         string    `json:"lastName" gorm:"column:last_name;type:varchar(200);not null;default:''"`
	Phone            string    `json:"phone" gorm:"column:phone;type:varchar(50);not null;default:''"`
	Email            string    `json:"email" gorm:"column:email;type:varchar(200);not null;default:''"`
	Source           string    `json:"source" gorm:"column:source;type:varchar(100);not null;default:''"`
	LeadStatus       string    `json:"leadStatus" gorm:"column:lead_status;type:varchar(50);not null;default:''"`
	CaseType         string    `json:"caseType" gorm:"column:case_type;type:varchar(100);not null;default:''"`
	CaseDescription  string    `json:"caseDescription" gorm:"column:case_description;type:text"`
	IncidentDate     string    `json:"incidentDate" gorm:"column:incident_date;type:varchar(100);not null;default:''"`
	ConsentToContact bool      `json:"consentToContact" gorm:"column:consent_to_contact;not null;default:false"`
	LeadScore        int       `json:"leadScore" gorm:"column:lead_score;not null;default:0"`
	CreatedDate      time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null"`
}

func (IntakeRecord) TableName() string {
	return "intake_records"
}

// NewIntakeRecord maps extracted call data onto a lead.
func NewIntakeRecord(conversationId string, d IntakeData, now time.Time) *IntakeRecord {
	first, last := SplitName(d.Name)
	return &IntakeRecord{
		ConversationId:   conversationId,
		FirstName:        first,
		LastName:         last,
		Phone:            d.Phone,
		Email:            d.Email,
		Source:           SourcePhoneIntake,
		LeadStatus:       LeadStatusNew,
		CaseType:         MapCaseType(d.AccidentType),
		CaseDescription:  utils.FirstNonEmpty(d.ExtraNotes, d.AccidentType),
		IncidentDate:     d.AccidentDate,
		ConsentToContact: d.ConsentGiven == "yes",
		LeadScore:        LeadScore(d),
		CreatedDate:      now.UTC(),
	}
}

// AirtableFields renders the record with the column names of the intake base.
func (r *IntakeRecord) AirtableFields() map[string]interface{} {
	return map[string]interface{}{
		"First Name":         r.FirstName,
		"Last Name":          r.LastName,
		"Phone":              r.Phone,
		"Email":              r.Email,
		"Source":             r.Source,
		"Lead Status":        r.LeadStatus,
		"Case Type":          r.CaseType,
		"Case Description":   r.CaseDescription,
		"Date of Incident":   r.IncidentDate,
		"Consent to Contact": r.ConsentToContact,
		"Lead Score":         r.LeadScore,
		"Created Date":       r.CreatedDate.Format(time.RFC3339),
	}
}

// SplitName returns the first word and the rest of a full name.
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func MapCaseType(accidentType string) string {
	if utils.IsEmpty(accidentType) {
		return CaseTypeUnknown
	}
	t := strings.ToLower(accidentType)
	switch {
	case strings.Contains(t, "car") || strings.Contains(t, "vehicle"):
		return CaseTypeVehicle
	case strings.Contains(t, "slip") || strings.Contains(t, "fall"):
		return CaseTypeSlipFall
	case strings.Contains(t, "work") || strings.Contains(t, "job"):
		return CaseTypeWorkersComp
	}
	return CaseTypeOtherInjury
}

// LeadScore rates a lead from 0 to 100.
func LeadScore(d IntakeData) int {
	score := baseLeadScore
	if strings.Contains(d.UrgencyFlag, "hospital") {
		score += 30
	}
	if d.ConsentGiven == "yes" {
		score += 10
	}
	if utf8.RuneCountInString(d.Phone) > minPhoneLength {
		score += 10
	}
	if utf8.RuneCountInString(d.ExtraNotes) > minDetailedNotesLength {
		score += 10
	}
	if score > maxLeadScore {
		return maxLeadScore
	}
	return score
}
