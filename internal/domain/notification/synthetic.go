package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/request"
	"gorm.io/datatypes"
)

const TitleExpiringSoon = "Resource Expiring Soon"

func ExpireID(requestID uint) string {
	return fmt.Sprintf("%d-expire", requestID)
}

func StatusID(requestID uint, status request.Status) string {
	return fmt.Sprintf("%d-status-%s", requestID, status)
}

// Derive computes the synthetic notifications for one refresh. Ids are
// deterministic so repeated refreshes yield the same candidates.
func Derive(now time.Time, userID string, active, recent []request.ResourceRequest) []Notification {
	out := []Notification{}

	for _, r := range active {
		if !request.IsActive(r, now) {
			continue
		}
		days := request.DaysRemaining(r.EndDate, now)
		if !request.IsExpiringSoon(days) {
			continue
		}
		status := StatusExpireSoon
		out = append(out, Notification{
			ID:        ExpireID(r.ID),
			UserID:    userID,
			Title:     TitleExpiringSoon,
			Message:   fmt.Sprintf("Your resource %q will expire in %d days.", r.ProjectName, days),
			Type:      TypeWarning,
			Status:    &status,
			Metadata:  requestMetadata(r),
			CreatedAt: now,
			Synthetic: true,
		})
	}

	for _, r := range recent {
		if !request.IsRecentlyChanged(r, now) {
			continue
		}
		display := r.Status.Display()
		status := Status(r.Status)
		out = append(out, Notification{
			ID:        StatusID(r.ID, r.Status),
			UserID:    userID,
			Title:     display.Title,
			Message:   fmt.Sprintf("Your request %q is now %s.", r.ProjectName, r.Status),
			Type:      Type(display.Tone),
			Status:    &status,
			Metadata:  requestMetadata(r),
			CreatedAt: request.ChangedAt(r),
			Synthetic: true,
		})
	}
	return out
}

func requestMetadata(r request.ResourceRequest) datatypes.JSON {
	b, err := json.Marshal(map[string]any{
		"request_id":   r.ID,
		"project_name": r.ProjectName,
		"end_date":     r.EndDate,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
