package inventory

import (
	"fmt"
	"math"
	"strings"
)

// MaxQuantityPerRequest caps a single request regardless of availability.
const MaxQuantityPerRequest = 4

// Availability is the display projection of one inventory row.
type Availability struct {
	ServerID       uint    `json:"server_id"`
	ServerName     string  `json:"server_name"`
	Rack           string  `json:"rack"`
	IPAddress      *string `json:"ip_address,omitempty"`
	GPUModelID     uint    `json:"gpu_model_id"`
	ModelName      string  `json:"model_name"`
	Vendor         string  `json:"vendor"`
	MemoryGB       int     `json:"memory_gb"`
	TotalCount     int     `json:"total_count"`
	AvailableCount int     `json:"available_count"`
	Ratio          float64 `json:"ratio"`
	Percent        int     `json:"percent"`
	Label          string  `json:"label"`
}

// Ratio is available/total, or 0 when the row has no capacity.
func Ratio(row ServerGPU) float64 {
	if row.TotalCount <= 0 {
		return 0
	}
	return float64(row.AvailableCount) / float64(row.TotalCount)
}

func Percent(row ServerGPU) int {
	return int(math.Round(Ratio(row) * 100))
}

func Label(row ServerGPU) string {
	return fmt.Sprintf("%d / %d available", row.AvailableCount, row.TotalCount)
}

func Describe(row ServerGPU) Availability {
	return Availability{
		ServerID:       row.ServerID,
		ServerName:     row.Server.Name,
		Rack:           row.Server.Label,
		IPAddress:      row.Server.IPAddress,
		GPUModelID:     row.GPUModelID,
		ModelName:      row.GPUModel.Name,
		Vendor:         row.GPUModel.Vendor,
		MemoryGB:       row.GPUModel.MemoryGB,
		TotalCount:     row.TotalCount,
		AvailableCount: row.AvailableCount,
		Ratio:          Ratio(row),
		Percent:        Percent(row),
		Label:          Label(row),
	}
}

// Matches reports whether the server name, rack label or model name contains
// query, ignoring case.
func Matches(row ServerGPU, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{row.Server.Name, row.Server.Label, row.GPUModel.Name} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func Filter(rows []ServerGPU, query string) []ServerGPU {
	out := make([]ServerGPU, 0, len(rows))
	for _, row := range rows {
		if Matches(row, query) {
			out = append(out, row)
		}
	}
	return out
}

// AvailableModels lists the models on a server that still have free units.
func AvailableModels(rows []ServerGPU, serverID uint) []GPUModel {
	models := []GPUModel{}
	for _, row := range rows {
		if row.ServerID == serverID && row.AvailableCount > 0 {
			models = append(models, row.GPUModel)
		}
	}
	return models
}

// MaxQuantity is min(available, MaxQuantityPerRequest) for the pair, or 0 when
// the pair is not stocked.
func MaxQuantity(rows []ServerGPU, serverID, modelID uint) int {
	for _, row := range rows {
		if row.ServerID == serverID && row.GPUModelID == modelID {
			return Cap(row.AvailableCount)
		}
	}
	return 0
}

func Cap(available int) int {
	if available < 0 {
		return 0
	}
	if available > MaxQuantityPerRequest {
		return MaxQuantityPerRequest
	}
	return available
}

// QuantityOptions enumerates 1..limit.
func QuantityOptions(limit int) []int {
	if limit < 0 {
		limit = 0
	}
	opts := make([]int, 0, limit)
	for i := 1; i <= limit; i++ {
		opts = append(opts, i)
	}
	return opts
}
