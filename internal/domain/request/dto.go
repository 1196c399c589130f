package request

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/linskybing/gpu-portal/internal/domain/inventory"
)

const (
	MinDurationDays = 1
	MaxDurationDays = 30
)

const (
	MsgDurationRange   = "Duration must be between 1 and 30 days"
	MsgSelectServer    = "Please select a server"
	MsgSelectModel     = "Please select a GPU model"
	MsgQuantityRange   = "Quantity must be between 1 and 4"
	MsgProjectName     = "Project name is required"
	MsgProjectDetails  = "Project description is required"
	MsgTermsNotAgreed  = "You must agree to the terms and conditions"
	MsgProjectNameLong = "Project name must be at most 200 characters"
)

// ValidationError is a user-facing input error raised before any store call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// DurationInput accepts a JSON number or a numeric string.
type DurationInput string

func (d *DurationInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DurationInput(s)
		return nil
	}
	*d = DurationInput(raw)
	return nil
}

// Days parses the input and enforces the allowed range.
func (d DurationInput) Days() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(d)))
	if err != nil || n < MinDurationDays || n > MaxDurationDays {
		return 0, invalid(MsgDurationRange)
	}
	return n, nil
}

type CreateRequestDTO struct {
	ServerID           uint          `json:"server_id" form:"server_id" example:"1"`
	GPUModelID         uint          `json:"gpu_model_id" form:"gpu_model_id" example:"2"`
	Quantity           int           `json:"quantity" form:"quantity" example:"1"`
	ProjectName        string        `json:"project_name" form:"project_name" example:"LLM fine-tuning"`
	ProjectDescription string        `json:"project_description" form:"project_description" example:"Fine-tune a 7B model on lab data"`
	DurationDays       DurationInput `json:"duration_days" form:"duration_days" swaggertype:"string" example:"7"`
	AgreedToTerms      bool          `json:"agreed_to_terms" form:"agreed_to_terms" example:"true"`
}

// Validate checks the form without touching inventory and returns the parsed
// duration in days.
func (d *CreateRequestDTO) Validate() (int, error) {
	days, err := d.DurationDays.Days()
	if err != nil {
		return 0, err
	}
	if d.ServerID == 0 {
		return 0, invalid(MsgSelectServer)
	}
	if d.GPUModelID == 0 {
		return 0, invalid(MsgSelectModel)
	}
	if d.Quantity < 1 || d.Quantity > inventory.MaxQuantityPerRequest {
		return 0, invalid(MsgQuantityRange)
	}
	name := strings.TrimSpace(d.ProjectName)
	if name == "" {
		return 0, invalid(MsgProjectName)
	}
	if utf8.RuneCountInString(name) > 200 {
		return 0, invalid(MsgProjectNameLong)
	}
	if strings.TrimSpace(d.ProjectDescription) == "" {
		return 0, invalid(MsgProjectDetails)
	}
	if !d.AgreedToTerms {
		return 0, invalid(MsgTermsNotAgreed)
	}
	return days, nil
}

type UpdateStatusDTO struct {
	Status Status `json:"status" form:"status" binding:"required,oneof=approved denied" example:"approved"`
}
