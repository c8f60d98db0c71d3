// Package stats contiene DTOs para GET /users-statistic.
package stats

// StatisticResponse es el triple de estadísticas.
type StatisticResponse struct {
	TotalUsers         int64   `json:"totalUsers"`
	ActiveUsers        int64   `json:"activeUsers"`
	AverageActiveUsers float64 `json:"averageActiveUsers"`
}
