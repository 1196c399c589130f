package request

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validDTO() CreateRequestDTO {
	return CreateRequestDTO{
		ServerID:           1,
		GPUModelID:         2,
		Quantity:           1,
		ProjectName:        "thesis",
		ProjectDescription: "train a model",
		DurationDays:       "7",
		AgreedToTerms:      true,
	}
}

// --------------------- Validate ---------------------
func TestValidate_Success(t *testing.T) {
	dto := validDTO()
	days, err := dto.Validate()
	assert.NoError(t, err)
	assert.Equal(t, 7, days)
}

func TestValidate_Duration(t *testing.T) {
	for _, in := range []DurationInput{"0", "31", "35", "abc", "", "-1", "7.5"} {
		dto := validDTO()
		dto.DurationDays = in
		_, err := dto.Validate()

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "input %q", in)
		assert.Equal(t, MsgDurationRange, verr.Message)
	}
	for _, in := range []DurationInput{"1", "30", " 15 "} {
		dto := validDTO()
		dto.DurationDays = in
		_, err := dto.Validate()
		assert.NoError(t, err, "input %q", in)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRequestDTO)
		msg    string
	}{
		{"no server", func(d *CreateRequestDTO) { d.ServerID = 0 }, MsgSelectServer},
		{"no model", func(d *CreateRequestDTO) { d.GPUModelID = 0 }, MsgSelectModel},
		{"zero quantity", func(d *CreateRequestDTO) { d.Quantity = 0 }, MsgQuantityRange},
		{"quantity above cap", func(d *CreateRequestDTO) { d.Quantity = 5 }, MsgQuantityRange},
		{"blank name", func(d *CreateRequestDTO) { d.ProjectName = "  " }, MsgProjectName},
		{"blank description", func(d *CreateRequestDTO) { d.ProjectDescription = "" }, MsgProjectDetails},
		{"terms", func(d *CreateRequestDTO) { d.AgreedToTerms = false }, MsgTermsNotAgreed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := validDTO()
			tt.mutate(&dto)
			_, err := dto.Validate()
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestValidate_ProjectNameCountsCharacters(t *testing.T) {
	dto := validDTO()
	dto.ProjectName = strings.Repeat("模", 200)
	_, err := dto.Validate()
	assert.NoError(t, err)

	dto.ProjectName = strings.Repeat("模", 201)
	_, err = dto.Validate()
	assert.EqualError(t, err, MsgProjectNameLong)
}

func TestDurationInput_UnmarshalJSON(t *testing.T) {
	var dto CreateRequestDTO
	require.NoError(t, json.Unmarshal([]byte(`{"duration_days": 12}`), &dto))
	assert.Equal(t, DurationInput("12"), dto.DurationDays)

	require.NoError(t, json.Unmarshal([]byte(`{"duration_days": "3"}`), &dto))
	assert.Equal(t, DurationInput("3"), dto.DurationDays)

	require.NoError(t, json.Unmarshal([]byte(`{"duration_days": null}`), &dto))
	assert.Equal(t, DurationInput(""), dto.DurationDays)
}

// --------------------- Lifecycle ---------------------
func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysRemaining(now.Add(time.Hour), now))
	assert.Equal(t, 1, DaysRemaining(now.Add(24*time.Hour), now))
	assert.Equal(t, 2, DaysRemaining(now.Add(25*time.Hour), now))
	assert.Equal(t, 0, DaysRemaining(now, now))
	assert.Equal(t, 0, DaysRemaining(now.Add(-time.Hour), now))
	assert.Equal(t, -1, DaysRemaining(now.Add(-25*time.Hour), now))
}

func TestDaysRemaining_DecreasesAsTimeAdvances(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	prev := DaysRemaining(end, start)
	for i := 1; i <= 12; i++ {
		cur := DaysRemaining(end, start.Add(time.Duration(i)*Day))
		assert.Less(t, cur, prev)
		prev = cur
	}
}

func TestRemainingLabel(t *testing.T) {
	assert.Equal(t, "3 days remaining", RemainingLabel(3))
	assert.Equal(t, "Expired", RemainingLabel(0))
	assert.Equal(t, "Expired", RemainingLabel(-4))
}

func TestIsExpiringSoon(t *testing.T) {
	assert.False(t, IsExpiringSoon(0))
	assert.True(t, IsExpiringSoon(1))
	assert.True(t, IsExpiringSoon(2))
	assert.False(t, IsExpiringSoon(3))
}

func TestIsRecentlyChanged(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	approved := ResourceRequest{Status: StatusApproved, UpdatedAt: now.Add(-23 * time.Hour)}
	assert.True(t, IsRecentlyChanged(approved, now))

	stale := ResourceRequest{Status: StatusDenied, UpdatedAt: now.Add(-25 * time.Hour)}
	assert.False(t, IsRecentlyChanged(stale, now))

	pending := ResourceRequest{Status: StatusPending, UpdatedAt: now}
	assert.False(t, IsRecentlyChanged(pending, now))

	fallback := ResourceRequest{Status: StatusExpired, CreatedAt: now.Add(-time.Hour)}
	assert.True(t, IsRecentlyChanged(fallback, now))
}

func TestIsActive(t *testing.T) {
	now := time.Now()
	assert.True(t, IsActive(ResourceRequest{Status: StatusApproved, EndDate: now.Add(time.Minute)}, now))
	assert.False(t, IsActive(ResourceRequest{Status: StatusApproved, EndDate: now.Add(-time.Minute)}, now))
	assert.False(t, IsActive(ResourceRequest{Status: StatusPending, EndDate: now.Add(time.Hour)}, now))
}

func TestDeleteActionFor(t *testing.T) {
	a, ok := DeleteActionFor(StatusPending)
	assert.True(t, ok)
	assert.Equal(t, ActionCancel, a)

	a, ok = DeleteActionFor(StatusApproved)
	assert.True(t, ok)
	assert.Equal(t, ActionReturn, a)

	_, ok = DeleteActionFor(StatusDenied)
	assert.False(t, ok)
	_, ok = DeleteActionFor(StatusExpired)
	assert.False(t, ok)
}

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "Active", StatusApproved.Display().Label)
	assert.Equal(t, "success", StatusApproved.Display().Tone)
	assert.Equal(t, "error", StatusDenied.Display().Tone)
	assert.Equal(t, "warning", StatusExpired.Display().Tone)
	assert.Equal(t, "Request Expired", StatusExpired.Display().Title)
	assert.False(t, Status("archived").Valid())

	s, ok := ParseStatus(" Approved ")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, s)
}

func TestSSHCommand(t *testing.T) {
	r := ResourceRequest{Status: StatusApproved}
	r.Server.IPAddress = strPtr("10.0.0.5")
	r.Server.SSHUsername = "gpu"
	r.Server.SSHPort = 2222
	assert.Equal(t, "ssh gpu@10.0.0.5 -p 2222", SSHCommand(r))

	r.Server.SSHPort = 0
	r.Server.SSHUsername = ""
	assert.Equal(t, "ssh user@10.0.0.5 -p 22", SSHCommand(r))

	r.Status = StatusPending
	assert.Empty(t, SSHCommand(r))
}

func TestNewView(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := ResourceRequest{ID: 4, Status: StatusApproved, EndDate: now.Add(36 * time.Hour)}

	v := NewView(r, now)
	assert.Equal(t, 2, v.DaysRemaining)
	assert.Equal(t, "2 days remaining", v.RemainingLabel)
	assert.True(t, v.ExpiringSoon)
	assert.True(t, v.Active)
	assert.Equal(t, "Active", v.Display.Label)
}

func TestEndDate(t *testing.T) {
	start := time.Date(2025, 1, 30, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 6, 9, 0, 0, 0, time.UTC), EndDate(start, 7))
}
